package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/firestream/firestream-go/firestream"
	"github.com/firestream/firestream-go/firestream/memfire"
	"github.com/firestream/firestream-go/firestream/realtime"
)

const FireCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `FireStream control.

The gateway url and token default to FIRESTREAM_URL and FIRESTREAM_JWT from
the environment or a .env file. When no token is given, firectl prompts for
one.

Usage:
    firectl demo
    firectl send [--url=<url>] [--jwt=<jwt>]
        --to=<user_id>
        [<message>]
    firectl listen [--url=<url>] [--jwt=<jwt>]
        [--message_count=<message_count>]

Options:
    -h --help                        Show this screen.
    --version                        Show version.
    --url=<url>                      Gateway websocket url.
    --jwt=<jwt>                      Your platform JWT.
    --to=<user_id>                   Destination user id.
    --message_count=<message_count>  Print this many messages then exit.`

	godotenv.Load()

	opts, err := docopt.ParseArgs(usage, os.Args[1:], FireCtlVersion)
	if err != nil {
		panic(err)
	}

	if demo_, _ := opts.Bool("demo"); demo_ {
		demo()
	} else if send_, _ := opts.Bool("send"); send_ {
		send(opts)
	} else if listen_, _ := opts.Bool("listen"); listen_ {
		listen(opts)
	}
}

// demo runs two sessions against the in-memory backend and walks the whole
// flow: create a chat, invite, message, receipt.
func demo() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fire := memfire.New()

	alice := firestream.NewFireStreamWithDefaults(ctx, fire, &firestream.StaticAuth{UserId: "alice"})
	bob := firestream.NewFireStreamWithDefaults(ctx, fire, &firestream.StaticAuth{UserId: "bob"})

	if err := alice.Connect(); err != nil {
		Err.Fatalf("alice connect: %s", err)
	}
	if err := bob.Connect(); err != nil {
		Err.Fatalf("bob connect: %s", err)
	}

	bob.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		Out.Printf("bob inbox %s: %s", event.Type(), event.Get().Text())
	})

	chat, err := alice.CreateChat(
		"demo",
		"",
		nil,
		[]*firestream.User{firestream.NewUserWithRole("bob", firestream.RoleTypeMember)},
	)
	if err != nil {
		Err.Fatalf("create chat: %s", err)
	}
	Out.Printf("created chat %s", chat.Id())

	connected := alice.GetChat(chat.Id())
	if connected == nil {
		Err.Fatalf("chat %s not connected", chat.Id())
	}
	connected.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		Out.Printf("chat %s %s: %s", chat.Id(), event.Type(), event.Get().Text())
	})

	if _, err := connected.SendMessageWithText("hello group"); err != nil {
		Err.Fatalf("send: %s", err)
	}
	if _, err := alice.SendMessageWithText("bob", "hello bob"); err != nil {
		Err.Fatalf("send direct: %s", err)
	}

	bobChat := bob.GetChat(chat.Id())
	if bobChat != nil {
		Out.Printf("bob joined chat %s with %d members", bobChat.Id(), len(bobChat.GetUsers()))
	}

	alice.Disconnect()
	bob.Disconnect()
}

func send(opts docopt.Opts) {
	fs, cancel := session(opts)
	defer cancel()

	to, _ := opts.String("--to")
	message, _ := opts.String("<message>")
	if message == "" {
		message = "hi"
	}

	messageId, err := fs.SendMessageWithText(to, message)
	if err != nil {
		Err.Fatalf("send: %s", err)
	}
	Out.Printf("sent %s", messageId)
}

func listen(opts docopt.Opts) {
	fs, cancel := session(opts)
	defer cancel()

	messageCount := -1
	if messageCount_, err := opts.Int("--message_count"); err == nil {
		messageCount = messageCount_
	}

	count := 0
	done := make(chan struct{})
	fs.SendableEvents().Messages().AllEvents().Subscribe(func(event firestream.Event[*firestream.Message]) {
		message := event.Get()
		Out.Printf("%s %s: %s", message.Date.Format(time.RFC3339), message.From, message.Text())
		count += 1
		if 0 <= messageCount && messageCount <= count {
			close(done)
		}
	})
	<-done
}

// session dials the gateway and connects a FireStream session for the token's
// user.
func session(opts docopt.Opts) (*firestream.FireStream, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	url, _ := opts.String("--url")
	if url == "" {
		url = os.Getenv("FIRESTREAM_URL")
	}
	if url == "" {
		Err.Fatal("missing gateway url")
	}

	jwt, _ := opts.String("--jwt")
	if jwt == "" {
		jwt = os.Getenv("FIRESTREAM_JWT")
	}
	if jwt == "" {
		fmt.Fprint(os.Stderr, "token: ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			Err.Fatalf("read token: %s", err)
		}
		jwt = string(tokenBytes)
	}

	gateway, err := realtime.NewRealtimeWithDefaults(ctx, url, jwt)
	if err != nil {
		Err.Fatalf("dial: %s", err)
	}

	auth, err := firestream.NewTokenAuth(jwt)
	if err != nil {
		Err.Fatalf("parse token: %s", err)
	}

	fs := firestream.NewFireStreamWithDefaults(ctx, gateway, auth)
	if err := fs.Connect(); err != nil {
		Err.Fatalf("connect: %s", err)
	}

	return fs, func() {
		fs.Disconnect()
		gateway.Close()
		cancel()
	}
}
