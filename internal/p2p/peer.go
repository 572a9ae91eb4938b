package p2p

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

// peer is one open connection. readPump and writePump own the socket.
type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newPeer(id string, conn *websocket.Conn) *peer {
	return &peer{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues data for writing. It reports false when the peer is closed
// or too slow to keep up.
func (p *peer) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- data:
		return true
	default:
		return false
	}
}

// close stops writePump, which sends a close frame and releases the socket.
func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (p *peer) readPump(n *Network) {
	defer n.drop(p)

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				n.logger.Warn("peer connection lost", zap.String("peer_id", p.id), zap.Error(err))
			}
			return
		}
		env, err := decodeEnvelope(message)
		if err != nil {
			n.logger.Warn("dropping malformed message", zap.String("peer_id", p.id), zap.Error(err))
			continue
		}
		n.dispatch(p.id, env)
	}
}

func (p *peer) writePump(n *Network) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		n.drop(p)
		p.conn.Close()
	}()

	for {
		select {
		case message := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				n.logger.Debug("peer write failed", zap.String("peer_id", p.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
