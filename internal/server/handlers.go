package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Tyrowin/livechat/internal/config"
	"github.com/Tyrowin/livechat/internal/logging"
	"github.com/Tyrowin/livechat/internal/room"
)

// Handlers serves the WebSocket endpoint and the read-only views of the room.
type Handlers struct {
	hub       *Hub
	engine    *room.Engine
	cfg       config.Config
	origins   *originPolicy
	upgrader  websocket.Upgrader
	startedAt time.Time
	logger    zerolog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string    `json:"status"`
	Uptime       float64   `json:"uptime"`
	Connections  int       `json:"connections"`
	Participants int       `json:"participants"`
	Messages     int       `json:"messages"`
	Timestamp    time.Time `json:"timestamp"`
}

// UsersResponse is the body of GET /api/users.
type UsersResponse struct {
	Total  int                `json:"total"`
	Online int                `json:"online"`
	Users  []room.Participant `json:"users"`
}

// NewHandlers builds the handlers for hub.
func NewHandlers(hub *Hub, cfg config.Config, logger zerolog.Logger) *Handlers {
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)
	return &Handlers{
		hub:     hub,
		engine:  hub.Engine(),
		cfg:     cfg,
		origins: origins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		startedAt: time.Now(),
		logger:    logger,
	}
}

// WebSocket upgrades the request and registers the new client with the hub,
// which starts its pumps.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := logging.Ctx(r.Context())
		l.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, h.hub, r.RemoteAddr, h.cfg)
	if !h.hub.Register(client) {
		client.closeConnection()
	}
}

// Health reports liveness and uptime.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	stats := h.engine.Stats()
	writeJSON(w, r, HealthResponse{
		Status:       "ok",
		Uptime:       time.Since(h.startedAt).Seconds(),
		Connections:  h.hub.ClientCount(),
		Participants: stats.Online,
		Messages:     stats.Messages,
		Timestamp:    time.Now().UTC(),
	})
}

// Users lists the current participants.
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	users := h.engine.Participants()
	online := 0
	for _, u := range users {
		if u.Online {
			online++
		}
	}
	writeJSON(w, r, UsersResponse{Total: len(users), Online: online, Users: users})
}

// Messages returns the most recent messages, oldest first.
func (h *Handlers) Messages(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, r, h.engine.RecentMessages(h.cfg.Room.QueryHistory))
}

// Index serves StaticDir when it exists and the built-in test page otherwise.
func (h *Handlers) Index() http.Handler {
	if info, err := os.Stat(h.cfg.StaticDir); err == nil && info.IsDir() {
		return http.FileServer(http.Dir(h.cfg.StaticDir))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		h.TestPage(w, r)
	})
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := logging.Ctx(r.Context())
		l.Error().Err(err).Msg("error writing JSON response")
	}
}

// TestPage serves a minimal browser client for manual testing.
func (h *Handlers) TestPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := fmt.Fprintf(w, testPageHTML, h.cfg.Room.Name); err != nil {
		l := logging.Ctx(r.Context())
		l.Error().Err(err).Msg("error writing HTML response")
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        #typing { color: #888; height: 1.2em; }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:disabled { background-color: #999; }
    </style>
</head>
<body>
    <div>
        <input type="text" id="name" placeholder="Your name">
        <button id="join" onclick="join()">Join</button>
    </div>
    <ul id="users"></ul>
    <div id="log"></div>
    <div id="typing"></div>
    <div>
        <input type="text" id="text" placeholder="Type a message..." disabled>
        <button id="send" onclick="send()" disabled>Send</button>
    </div>
    <script>
        const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        let ws = null;
        let typing = false;
        const users = new Map();
        const typers = new Map();
        const $ = (id) => document.getElementById(id);

        function line(text, color) {
            const el = document.createElement('div');
            el.style.color = color || 'black';
            el.textContent = text;
            $('log').appendChild(el);
            $('log').scrollTop = $('log').scrollHeight;
        }

        function renderUsers() {
            $('users').innerHTML = '';
            users.forEach((u) => {
                const li = document.createElement('li');
                li.textContent = u.name;
                $('users').appendChild(li);
            });
        }

        function renderTyping() {
            const names = Array.from(typers.values());
            $('typing').textContent = names.length ? names.join(', ') + ' typing...' : '';
        }

        function emit(event, data) {
            ws.send(JSON.stringify({event: event, data: data || {}}));
        }

        const handlers = {
            'users:list': (list) => { users.clear(); list.forEach((u) => users.set(u.id, u)); renderUsers(); },
            'user:joined': (u) => { users.set(u.id, u); renderUsers(); },
            'user:left': (id) => { users.delete(id); typers.delete(id); renderUsers(); renderTyping(); },
            'system:message': (m) => line(m.text, 'gray'),
            'messages:history': (list) => list.forEach((m) => line(m.senderName + ': ' + m.text)),
            'message:receive': (m) => line(m.senderName + ': ' + m.text, 'green'),
            'typing:update': (t) => { if (t.typing) { typers.set(t.userId, t.name); } else { typers.delete(t.userId); } renderTyping(); },
        };

        function join() {
            ws = new WebSocket(proto + location.host + '/ws');
            ws.onopen = () => {
                emit('user:join', {name: $('name').value || 'anonymous'});
                $('text').disabled = false;
                $('send').disabled = false;
                $('join').disabled = true;
            };
            ws.onmessage = (event) => {
                event.data.split('\n').forEach((frame) => {
                    const env = JSON.parse(frame);
                    const handler = handlers[env.event];
                    if (handler) { handler(env.data); }
                });
            };
            ws.onclose = () => {
                line('Connection closed', 'red');
                $('text').disabled = true;
                $('send').disabled = true;
                $('join').disabled = false;
            };
        }

        function send() {
            const text = $('text').value.trim();
            if (!text || !ws) { return; }
            emit('message:send', {text: text});
            emit('typing:stop');
            typing = false;
            $('text').value = '';
        }

        $('text').addEventListener('input', () => {
            const nowTyping = $('text').value.length > 0;
            if (nowTyping !== typing) {
                typing = nowTyping;
                emit(typing ? 'typing:start' : 'typing:stop');
            }
        });
        $('text').addEventListener('keypress', (e) => { if (e.key === 'Enter') { send(); } });
    </script>
</body>
</html>`
