// Terminal client for the realtime chat server. It speaks the websocket
// protocol end to end (CONNECT handshake, SUBSCRIBE, SEND) and renders
// incoming frames as they arrive. Meant for demos and manual testing.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"github.com/google/uuid"

	"chat-video/auth"
	"chat-video/broker"
	"chat-video/domain"
	"chat-video/projection"
	"chat-video/transport/ws"
)

func main() {
	server := flag.String("server", "localhost:8080", "Server host:port")
	email := flag.String("email", "", "Identity to chat as (a dev token is minted locally)")
	token := flag.String("token", "", "Use this JWT instead of minting one")
	room := flag.String("room", "general", "Room to join")
	flag.Parse()

	if *email == "" && *token == "" {
		log.Fatal("Provide -email (dev token) or -token")
	}

	jwt := *token
	if jwt == "" {
		// Dev convenience: the client shares the server's signing key, so a
		// local identity works against a local server.
		var err error
		jwt, err = auth.GenerateToken(*email, *email, []string{"user"}, 12*time.Hour)
		if err != nil {
			log.Fatalf("Minting token: %v", err)
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", *server), nil)
	if err != nil {
		log.Fatalf("Dialing %s: %v", *server, err)
	}
	defer conn.Close()

	if err := connect(conn, jwt); err != nil {
		log.Fatalf("Handshake: %v", err)
	}
	color.Green.Printf("Connected to %s as %s\n", *server, *email)

	subscribe(conn, broker.TopicMessages)
	subscribe(conn, broker.TopicNotifications)
	send(conn, broker.DestChatJoin, map[string]string{"roomId": *room})

	timeline := projection.NewTimeline()
	go readFrames(conn, timeline)

	printHelp(*room)
	repl(conn, *server, jwt, *room, timeline)
}

func connect(conn *websocket.Conn, jwt string) error {
	err := conn.WriteJSON(ws.ClientFrame{
		Type:    ws.FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer " + jwt},
	})
	if err != nil {
		return err
	}

	var reply ws.ServerFrame
	if err := conn.ReadJSON(&reply); err != nil {
		return err
	}
	if reply.Type != ws.FrameConnected {
		return fmt.Errorf("expected CONNECTED, got %q", reply.Type)
	}
	return nil
}

func subscribe(conn *websocket.Conn, topic string) {
	_ = conn.WriteJSON(ws.ClientFrame{Type: ws.FrameSubscribe, Destination: topic})
}

func send(conn *websocket.Conn, destination string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		color.Red.Printf("Encoding frame: %v\n", err)
		return
	}
	_ = conn.WriteJSON(ws.ClientFrame{Type: ws.FrameSend, Destination: destination, Body: raw})
}

// readFrames renders every incoming frame until the connection dies.
func readFrames(conn *websocket.Conn, timeline *projection.Timeline) {
	for {
		var frame struct {
			Type        string          `json:"type"`
			Destination string          `json:"destination"`
			Error       string          `json:"error"`
			Body        json.RawMessage `json:"body"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			color.Red.Printf("\nConnection lost: %v\n", err)
			os.Exit(1)
		}

		switch {
		case frame.Type == ws.FrameError:
			color.Red.Printf("! %s rejected: %s\n", frame.Destination, frame.Error)
		case frame.Destination == broker.TopicMessages:
			var body broker.ChatBody
			_ = json.Unmarshal(frame.Body, &body)
			timeline.Insert(toMessage(body))
			color.Cyan.Printf("[%s] ", body.RoomID)
			color.Yellow.Printf("%s: ", body.Sender)
			fmt.Println(body.Content)
		case frame.Destination == broker.TopicNotifications:
			var body broker.ChatBody
			_ = json.Unmarshal(frame.Body, &body)
			color.Gray.Printf("* %s joined %s\n", body.Sender, body.RoomID)
		case strings.HasPrefix(frame.Destination, "/user/queue/video."):
			var body broker.SignalBody
			_ = json.Unmarshal(frame.Body, &body)
			color.Magenta.Printf("» %s from %s\n", body.Type, body.From)
		default:
			color.Gray.Printf("? %s: %s\n", frame.Destination, string(frame.Body))
		}
	}
}

// toMessage rebuilds the domain view of a received chat frame for the local
// timeline. Undecodable fields degrade to zero values, never to a crash.
func toMessage(body broker.ChatBody) domain.Message {
	id, _ := uuid.Parse(body.ID)
	msg := domain.Message{
		ID:       id,
		RoomID:   body.RoomID,
		SenderID: body.Sender,
		Content:  body.Content,
		Kind:     domain.ParseMessageKind(body.Type),
		Read:     body.Read,
	}
	if body.Timestamp != nil {
		msg.CreatedAt = *body.Timestamp
	}
	return msg
}

func repl(conn *websocket.Conn, server, jwt, room string, timeline *projection.Timeline) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/help":
			printHelp(room)
		case strings.HasPrefix(line, "/join "):
			room = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			send(conn, broker.DestChatJoin, map[string]string{"roomId": room})
			color.Green.Printf("Joined %s\n", room)
		case strings.HasPrefix(line, "/call "):
			to := strings.TrimSpace(strings.TrimPrefix(line, "/call "))
			send(conn, broker.DestVideoCall, map[string]string{"type": string(domain.SignalCallRequest), "to": to})
			color.Magenta.Printf("Calling %s...\n", to)
		case line == "/history":
			printHistory(server, jwt, room)
		case line == "/log":
			for _, m := range timeline.Messages() {
				color.Cyan.Printf("[%s] ", m.RoomID)
				color.Yellow.Printf("%s: ", m.SenderID)
				fmt.Println(m.Content)
			}
		default:
			send(conn, broker.DestChatSend, map[string]string{"content": line, "roomId": room})
		}
	}
}

// printHistory fetches the room's recent messages over REST and renders them
// oldest first for reading order.
func printHistory(server, jwt, room string) {
	url := fmt.Sprintf("http://%s/api/rooms/%s/messages", server, room)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		color.Red.Printf("History: %v\n", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+jwt)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red.Printf("History: %v\n", err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		color.Red.Printf("History: HTTP %d\n", res.StatusCode)
		return
	}

	var messages []struct {
		Sender    string    `json:"sender"`
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(res.Body).Decode(&messages); err != nil {
		color.Red.Printf("History: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Content"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		table.Append([]string{m.Timestamp.Format("15:04:05"), m.Sender, m.Content})
	}
	table.Render()
}

func printHelp(room string) {
	color.Gray.Printf("Commands: /join <room>, /call <email>, /history, /log, /help, /quit. Anything else chats in %s\n", room)
}
