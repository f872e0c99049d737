package commands

import (
	"context"
	"io/ioutil"
	"math/rand"
	"os"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/battlesnakeio/fruitsnake/worker"
	termbox "github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seed int64

func init() {
	playCmd.Flags().Int64Var(&seed, "seed", 0, "seed for food placement, 0 picks a random one")
	playCmd.Flags().AddFlagSet(backendFlags())
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "plays a game in the terminal",
	Run: func(*cobra.Command, []string) {
		if logFile == "" {
			log.SetOutput(ioutil.Discard)
		}
		if err := play(); err != nil {
			log.WithError(err).Error("play failed")
			os.Exit(1)
		}
	},
}

// statusMessage is the hint shown under the board for a snapshot.
func statusMessage(s *rules.Snapshot) string {
	switch s.Status {
	case rules.GameStatusReady:
		return "Press Enter to start the game."
	case rules.GameStatusWon:
		return "You won! Press Enter to play again."
	case rules.GameStatusLost:
		return "Game Over! Press Enter to try again."
	case rules.GameStatusExited:
		return "Game exited. Press Enter to start a new game."
	case rules.GameStatusPaused:
		return "Paused. Press Space to resume."
	}
	return ""
}

func play() error {
	cfg, err := gameConfig()
	if err != nil {
		return err
	}
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	e, err := rules.New(cfg, rng)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session := worker.NewSession("terminal", e, store)
	go func() {
		if err := session.Run(ctx); err != nil && err != context.Canceled {
			log.WithError(err).Error("session failed")
		}
	}()
	snapshots, unsubscribe := session.Subscribe()
	defer unsubscribe()

	if err = termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()

	eventQueue := setupEventQueue()
	current := session.Latest()
	for {
		select {
		case ev := <-eventQueue:
			if ev.Type == termbox.EventResize {
				if err := render(current, "Fruit Snake", statusMessage(current)); err != nil {
					return err
				}
				continue
			}
			cmd, quit, ok := keyCommand(ev)
			if quit {
				cancel()
				<-session.Done()
				return nil
			}
			if !ok {
				continue
			}
			if err := session.Send(ctx, cmd); err != nil {
				log.WithError(err).WithField("Command", cmd).Warn("command failed")
			}
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			current = snap
			if err := render(current, "Fruit Snake", statusMessage(current)); err != nil {
				return err
			}
		}
	}
}

func setupEventQueue() <-chan termbox.Event {
	eventQueue := make(chan termbox.Event)
	go func(ev chan<- termbox.Event) {
		for {
			ev <- termbox.PollEvent()
		}
	}(eventQueue)
	return eventQueue
}
