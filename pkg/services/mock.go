package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// LocalBackend is a deterministic rule based responder used offline and in
// development. The same input always produces the same reply.
type LocalBackend struct{}

func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

func (LocalBackend) Name() string { return "local" }

func (LocalBackend) Load(ctx context.Context) error { return ctx.Err() }

var (
	localGreetings = []string{"hello", "hi", "hey", "good morning", "good evening"}
	localFollowUps = []string{
		"what do you like to do for fun?",
		"do you have any plans for the weekend?",
		"how has your day been so far?",
		"what kind of music do you listen to?",
	}
)

func (LocalBackend) Complete(ctx context.Context, text string, maxLength int) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(text))
	b := &strings.Builder{}
	b.WriteString("__start__ ")
	switch {
	case msg == "":
		b.WriteString("i'm not sure what you mean. what would you like to talk about?")
	case hasGreeting(msg):
		b.WriteString("hi there! i'm doing well, thanks for asking. ")
		b.WriteString(pick(localFollowUps, msg))
	case strings.HasSuffix(msg, "?"):
		fmt.Fprintf(b, "that's a good question. i think about %s a lot. what do you think?", topic(msg))
	default:
		fmt.Fprintf(b, "that sounds interesting. tell me more about %s. ", topic(msg))
		b.WriteString(pick(localFollowUps, msg))
	}
	b.WriteString(" __end__")
	return b.String(), nil
}

func hasGreeting(msg string) bool {
	for _, g := range localGreetings {
		if msg == g || strings.HasPrefix(msg, g+" ") || strings.HasPrefix(msg, g+",") || strings.HasPrefix(msg, g+"!") {
			return true
		}
	}
	return false
}

// topic picks the longest word of msg as a crude subject.
func topic(msg string) string {
	best := "that"
	for _, w := range strings.Fields(msg) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}

func pick(options []string, key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return options[int(h.Sum32()%uint32(len(options)))]
}
