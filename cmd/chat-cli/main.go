// chat-cli is a small terminal client for manual testing against a
// running relay. It logs in, prints what the channel sees, and sends
// every line you type as a chat message. `/switch <channel>` moves you.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/relaychat/relaychat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chat-cli: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "", "username")
	pass := flag.String("pass", "", "password")
	signup := flag.Bool("signup", false, "create the account before logging in")
	flag.Parse()

	if *user == "" || *pass == "" {
		return errors.New("both -user and -pass are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frameType string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", frameType, err)
		}
		return wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: data})
	}

	creds := proto.CredentialsData{Username: *user, Password: *pass}
	if *signup {
		if err := send(proto.InboundSignup, creds); err != nil {
			return err
		}
	}
	if err := send(proto.InboundLogin, creds); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Type to chat, /switch <channel> to move, Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, send)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		printFrame(outbound)
	}
}

func printFrame(outbound proto.Outbound) {
	raw, err := json.Marshal(outbound.Data)
	if err != nil {
		log.Printf("marshal frame data: %v", err)
		return
	}

	switch outbound.Type {
	case proto.OutboundChat:
		var msg proto.MessageInfo
		if json.Unmarshal(raw, &msg) == nil {
			sender := msg.Sender
			if msg.SenderLabel != "" {
				sender += " [" + msg.SenderLabel + "]"
			}
			if msg.Attachment != nil {
				fmt.Printf("[%s] %s shared %s (%s)\n", msg.Channel, sender, msg.Attachment.Name, msg.Attachment.URL)
				return
			}
			fmt.Printf("[%s] %s: %s\n", msg.Channel, sender, msg.Text)
		}
	case proto.OutboundHistory:
		var history proto.HistoryData
		if json.Unmarshal(raw, &history) == nil {
			fmt.Printf("--- %s: %d messages ---\n", history.Channel, len(history.Messages))
			for _, msg := range history.Messages {
				fmt.Printf("[%s] %s: %s\n", history.Channel, msg.Sender, msg.Text)
			}
		}
	case proto.OutboundTypingUpdate:
		var typing proto.TypingUpdateData
		if json.Unmarshal(raw, &typing) == nil && len(typing.Typing) > 0 {
			fmt.Printf("(%s typing in %s)\n", strings.Join(typing.Typing, ", "), typing.Channel)
		}
	case proto.OutboundLoginResponse:
		var login proto.LoginResponseData
		if json.Unmarshal(raw, &login) == nil {
			if login.Success {
				fmt.Printf("logged in as %s (admin=%v)\n", login.Username, login.Admin)
			} else {
				fmt.Println("login failed")
			}
		}
	case proto.OutboundError:
		if outbound.Error != nil {
			fmt.Printf("error: %s (%s)\n", outbound.Error.Message, outbound.Error.Code)
		}
	default:
		fmt.Printf("%s: %s\n", outbound.Type, string(raw))
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, send func(string, any) error) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			if channel, found := strings.CutPrefix(text, "/switch "); found {
				if err := send(proto.InboundSwitchChannel, proto.ChannelData{Channel: channel}); err != nil {
					log.Printf("send error: %v", err)
					return
				}
				continue
			}

			if err := send(proto.InboundChat, proto.ChatData{Text: text}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
