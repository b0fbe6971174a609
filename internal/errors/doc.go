// Package errors provides coded, actionable errors for template structure,
// configuration, and template loading problems.
//
// Expression failures are not reported here: they degrade to an absent
// value at evaluation time. The errors in this package are programmer
// errors that surface as soon as a template is parsed or a configuration
// is loaded.
//
// # Error Categories
//
//   - directive: malformed if / for-each declarations
//   - template: template loading and structure
//   - config: configuration files
//   - cli: command-line usage
//
// # Usage
//
//	err := errors.New("W101").
//	    WithTemplate("list.html").
//	    WithElement(`<li for-each="items">`).
//	    WithSuggestion(`Write the declaration as "item in items"`)
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR W101: for-each declaration is missing " in "
//	//
//	//   list.html
//	//   <li for-each="items">
//	//
//	//   A for-each value names the loop variable and the collection ...
//	//
//	//   Hint: Write the declaration as "item in items"
package errors
