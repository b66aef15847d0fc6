package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type WSConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

func (c *WSConn) ReadFrame() (*structpb.Struct, bool, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, false, err
	}
	var msg structpb.Struct
	switch messageType {
	case websocket.TextMessage:
		if err := protojson.Unmarshal(data, &msg); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return &msg, false, nil
	default:
		if err := proto.Unmarshal(data, &msg); err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return &msg, true, nil
	}
}

func (c *WSConn) WriteFrame(msg *structpb.Struct, binary bool) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !binary {
		data, err := protojson.Marshal(msg)
		if err != nil {
			return err
		}
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}
