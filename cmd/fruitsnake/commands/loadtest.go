package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/battlesnakeio/fruitsnake/api"
	"github.com/battlesnakeio/fruitsnake/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	games           int
	updateFrequency = 300 * time.Millisecond
)

func init() {
	loadTestCmd.Flags().IntVarP(&games, "num-games", "n", 10, "number of sessions to create and play for the load test")
	loadTestCmd.Flags().DurationVar(&updateFrequency, "interval", updateFrequency, "how often every session is polled and steered")
}

type statusUpdate struct {
	id     string
	status rules.GameStatus
	err    error
}

var loadTestCmd = &cobra.Command{
	Use:   "load-test",
	Short: "run a load test against the api, every session is steered at random until its game ends",
	Run: func(*cobra.Command, []string) {
		start := time.Now()
		ids := []string{}
		log.Info("Creating sessions")
		for i := 0; i < games; i++ {
			id, err := startSession(int64(i + 1))
			if err != nil {
				log.WithError(err).Fatal("unable to start session")
			}
			ids = append(ids, id)
		}

		statuses := map[string]rules.GameStatus{}
		updates := make(chan statusUpdate)
		for i, id := range ids {
			statuses[id] = ""
			go steer(id, rand.New(rand.NewSource(int64(i))), updates)
		}

		for s := range updates {
			fields := log.Fields{
				"id":     s.id,
				"status": s.status,
			}
			if s.err != nil {
				log.WithError(s.err).WithFields(fields).Warn("Session failed")
				s.status = rules.GameStatusExited
			} else {
				log.WithFields(fields).Debug("Session Status")
			}
			statuses[s.id] = s.status

			done := true
			for _, s := range statuses {
				if !s.Ended() {
					done = false
				}
			}

			if done {
				log.WithFields(log.Fields{
					"elapsed": time.Since(start),
					"games":   games,
				}).Info("All games complete")
				return
			}
		}
	},
}

func postJSON(path string, body, out interface{}) error {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(apiAddr+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func startSession(seed int64) (string, error) {
	res := &api.CreateSessionResponse{}
	if err := postJSON("/sessions", &api.CreateSessionRequest{Seed: &seed}, res); err != nil {
		return "", err
	}
	return res.ID, sendCommand(res.ID, "start")
}

func sendCommand(id, cmd string) error {
	return postJSON(fmt.Sprintf("/sessions/%s/commands", id), &api.CommandRequest{Command: cmd}, nil)
}

var steerCommands = []string{"up", "down", "left", "right"}

// steer turns the session at random every tick of updateFrequency and reports
// its status until the game ends.
func steer(id string, rng *rand.Rand, updates chan<- statusUpdate) {
	t := time.NewTicker(updateFrequency)
	defer t.Stop()
	for range t.C {
		snap := &rules.Snapshot{}
		if err := getJSON("/sessions/"+id, snap); err != nil {
			updates <- statusUpdate{id: id, err: err}
			return
		}
		updates <- statusUpdate{id: id, status: snap.Status}
		if snap.Status.Ended() {
			return
		}
		if err := sendCommand(id, steerCommands[rng.Intn(len(steerCommands))]); err != nil {
			log.WithError(err).WithField("id", id).Debug("command rejected")
		}
	}
}
