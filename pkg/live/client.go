package live

// ClientScript keeps the page in sync with the server. It replaces the
// root markup on every update and forwards events from elements carrying
// data-on-<type> markers.
const ClientScript = `
(function() {
    'use strict';

    var root = document.body.firstElementChild;
    var ws = null;
    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var bound = {};

    function send(msg) {
        if (ws && ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify(msg));
            return;
        }
        fetch('/events', {
            method: 'POST',
            headers: {'Content-Type': 'application/json'},
            body: JSON.stringify(msg)
        });
    }

    function bind(type) {
        if (bound[type]) {
            return;
        }
        bound[type] = true;
        document.addEventListener(type, function(e) {
            var el = e.target.closest('[data-on-' + type + ']');
            if (!el || !root.contains(el)) {
                return;
            }
            e.preventDefault();
            var detail = null;
            if ('value' in el) {
                detail = {value: el.value, checked: !!el.checked};
            }
            send({id: el.getAttribute('data-hid'), type: type, detail: detail});
        });
    }

    function scan() {
        root.querySelectorAll('*').forEach(function(el) {
            for (var i = 0; i < el.attributes.length; i++) {
                var name = el.attributes[i].name;
                if (name.indexOf('data-on-') === 0) {
                    bind(name.slice(8));
                }
            }
        });
    }

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + (window.__WEAVE_SOCKET__ || '/ws'));

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'update':
                    root.innerHTML = msg.html || '';
                    scan();
                    break;
                case 'error':
                    console.error('[weave]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    scan();
    connect();
})();
`
