// Command play runs a game in the terminal against a local session.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"parlor/internal/config"
	"parlor/internal/game"
	"parlor/internal/game/blockmatch"
	"parlor/internal/game/crazyeights"
	"parlor/internal/render"
	"parlor/internal/session"
	"parlor/internal/storage"
)

const playerID = "you"

func main() {
	gameType := flag.String("game", "blockmatch", "blockmatch or crazyeights")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(cfg, *gameType, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, gameType string, in io.Reader, out io.Writer) error {
	store, err := storage.New(":memory:")
	if err != nil {
		return err
	}
	defer store.Close()

	registry := game.NewRegistry()
	registry.Register(blockmatch.BlockMatch{})
	registry.Register(crazyeights.CrazyEights{ThinkTime: cfg.OpponentDelay})

	mgr := session.NewManager(registry, store, session.WithLogger(zap.NewNop()), session.WithSeed(cfg.Seed))
	defer mgr.Shutdown()

	sess, err := mgr.Create(gameType)
	if err != nil {
		return err
	}
	if err := sess.AddPlayer(playerID); err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}

	t := &terminal{out: out, sess: sess}
	mgr.OnChange(func(*session.Session) { t.draw("") })
	t.draw("")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "q" {
			break
		}
		if line == "" {
			t.draw("")
			continue
		}
		action, err := parseCommand(gameType, line, t.current())
		if err == nil {
			err = sess.Apply(playerID, action)
		}
		note := ""
		if err != nil {
			note = game.Message(err)
		}
		t.draw(note)
	}
	return scanner.Err()
}

// terminal serialises redraws from the input loop and from timers.
type terminal struct {
	mu   sync.Mutex
	out  io.Writer
	sess *session.Session
	last any
}

func (t *terminal) current() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *terminal) draw(note string) {
	snap := t.sess.Snapshot(playerID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = snap.State
	switch v := snap.State.(type) {
	case blockmatch.View:
		fmt.Fprintln(t.out, render.BlockMatch(v))
	case crazyeights.View:
		fmt.Fprintln(t.out, render.CrazyEights(v))
	}
	if note != "" {
		fmt.Fprintln(t.out, note)
	}
	fmt.Fprint(t.out, "> ")
}
