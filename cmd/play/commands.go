package main

import (
	"fmt"
	"strconv"
	"strings"

	"parlor/internal/game"
	"parlor/internal/game/crazyeights"
)

// parseCommand turns a typed line into an action. view is the latest state
// the player saw; crazy eights cards are picked by their position in it.
func parseCommand(gameType, line string, view any) (game.Action, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return game.Action{}, fmt.Errorf("empty command")
	}
	switch gameType {
	case "blockmatch":
		return blockCommand(fields)
	case "crazyeights":
		hand, _ := view.(crazyeights.View)
		return cardCommand(fields, hand)
	}
	return game.Action{}, fmt.Errorf("unknown game %q", gameType)
}

func blockCommand(fields []string) (game.Action, error) {
	switch fields[0] {
	case "init", "new":
		mode := "classic"
		if len(fields) > 1 {
			mode = fields[1]
		}
		return game.NewAction("init", map[string]string{"mode": mode}), nil
	case "click", "c":
		if len(fields) != 2 {
			return game.Action{}, fmt.Errorf("usage: click <id>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return game.Action{}, fmt.Errorf("block id must be a number")
		}
		return game.NewAction("click", map[string]int{"id": id}), nil
	}
	return game.Action{}, fmt.Errorf("unknown command %q", fields[0])
}

func cardCommand(fields []string, v crazyeights.View) (game.Action, error) {
	switch fields[0] {
	case "start":
		return game.NewAction("start", nil), nil
	case "ok":
		return game.NewAction("confirm_rules", nil), nil
	case "draw", "d":
		return game.NewAction("draw", nil), nil
	case "play", "p":
		if len(fields) != 2 {
			return game.Action{}, fmt.Errorf("usage: play <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(v.Hand) {
			return game.Action{}, fmt.Errorf("pick a card from 1 to %d", len(v.Hand))
		}
		return game.NewAction("play", map[string]string{"cardId": v.Hand[n-1].ID}), nil
	case "suit", "s":
		if len(fields) != 2 {
			return game.Action{}, fmt.Errorf("usage: suit <hearts|diamonds|clubs|spades>")
		}
		return game.NewAction("suit", map[string]string{"suit": fields[1]}), nil
	}
	return game.Action{}, fmt.Errorf("unknown command %q", fields[0])
}
