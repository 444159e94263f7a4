// Command ws_smoke signs up a throwaway account, logs in, sends one chat
// message to general and waits for the echo. Exit code 0 means the full
// path (auth, fan-out, persistence) works end to end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/relaychat/relaychat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "smoketester", "username to sign up and log in with")
	pass := flag.String("pass", "sm0ke-te5t-pa55word", "password for the throwaway account")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: raw}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	creds := proto.CredentialsData{Username: *user, Password: *pass}
	if err := send(proto.InboundSignup, creds); err != nil {
		return err
	}
	if err := send(proto.InboundLogin, creds); err != nil {
		return err
	}
	if err := send(proto.InboundChat, proto.ChatData{Text: *text}); err != nil {
		return err
	}

	for {
		var frame struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received frame: type=%s\n", frame.Type)
		if frame.Error != nil {
			// An account left over from a previous run makes the signup
			// conflict; the login right behind it still carries the run.
			fmt.Printf("Error: %s %s\n", frame.Error.Code, frame.Error.Message)
			continue
		}

		switch frame.Type {
		case proto.OutboundLoginResponse:
			var login proto.LoginResponseData
			if err := json.Unmarshal(frame.Data, &login); err != nil {
				return fmt.Errorf("unmarshal login response: %w", err)
			}
			if !login.Success {
				return fmt.Errorf("login failed for %q", *user)
			}
			fmt.Printf("Logged in: user=%s admin=%v\n", login.Username, login.Admin)
		case proto.OutboundChat:
			var msg proto.MessageInfo
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				return fmt.Errorf("unmarshal chat: %w", err)
			}
			fmt.Printf("Chat echo: channel=%s sender=%s text=%q id=%d\n", msg.Channel, msg.Sender, msg.Text, msg.ID)
			return nil
		default:
			// keep looping for the chat echo
		}
	}
}
