package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/battlesnakeio/fruitsnake/api"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/gorilla/websocket"
	termbox "github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultInterval = 200 * time.Millisecond

var (
	gameID    string
	sessionID string
)

func init() {
	replayCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the recorded game to replay")
	replayCmd.Flags().StringVarP(&sessionID, "session-id", "s", "", "watch a live session instead of a recorded game")
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "replays a recorded game, or watches a live session, at the recorded speed",
	Args: func(c *cobra.Command, args []string) error {
		if len(gameID) == 0 && len(sessionID) == 0 {
			return errors.New("game id or session id is required")
		}
		return nil
	},
	Run: func(*cobra.Command, []string) {
		if logFile == "" {
			log.SetLevel(log.FatalLevel)
		}
		var frames *frameHolder
		var err error
		title := ""
		if gameID != "" {
			frames, err = loadGame(gameID)
			title = "Replay of game " + gameID
		} else {
			frames, err = watchSession(sessionID)
			title = "Watching session " + sessionID
		}
		if err != nil {
			fmt.Println(err)
			return
		}
		replayGame(title, frames)
	},
}

func moveFrameForwards(frameIndex int, frames *frameHolder) (int, *rules.Snapshot, bool) {
	frameIndex++
	if frameIndex >= frames.count() {
		return frameIndex, nil, true
	}
	return frameIndex, frames.get(frameIndex), false
}

func moveFrameBackwards(frameIndex int, frames *frameHolder) (int, *rules.Snapshot) {
	frameIndex--
	if frameIndex <= 0 {
		frameIndex = 0
	}
	return frameIndex, frames.get(frameIndex)
}

func getJSON(path string, v interface{}) error {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(apiAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func loadGame(id string) (*frameHolder, error) {
	g := &rules.Game{}
	if err := getJSON("/games/"+id, g); err != nil {
		return nil, err
	}
	res := &api.FramesResponse{}
	if err := getJSON(fmt.Sprintf("/games/%s/frames?limit=0", id), res); err != nil {
		return nil, err
	}
	if len(res.Frames) == 0 {
		return nil, fmt.Errorf("game %s has no frames", id)
	}

	frames := &frameHolder{}
	for _, f := range res.Frames {
		frames.append(f)
	}
	log.WithFields(log.Fields{
		"GameID": g.ID,
		"Status": g.Status,
		"Frames": len(res.Frames),
	}).Info("loaded game")
	return frames, nil
}

func watchSession(id string) (*frameHolder, error) {
	u := url.URL{
		Scheme: "ws",
		Host:   strings.TrimPrefix(strings.TrimPrefix(apiAddr, "http://"), "https://"),
		Path:   fmt.Sprintf("/sessions/%s/socket", id),
	}
	if strings.HasPrefix(apiAddr, "https://") {
		u.Scheme = "wss"
	}
	log.Infof("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	frames := &frameHolder{}
	go func() {
		defer c.Close()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.WithError(err).Warn("read failed")
				}
				return
			}
			if mt != websocket.TextMessage {
				log.Warnf("unhandled message type: %d", mt)
				continue
			}

			rejected := struct {
				Error string `json:"error"`
			}{}
			if err := json.Unmarshal(message, &rejected); err == nil && rejected.Error != "" {
				continue
			}
			frame := &rules.Snapshot{}
			if err := json.Unmarshal(message, frame); err != nil {
				log.WithError(err).Warn("unmarshal frame")
				return
			}
			frames.append(frame)
		}
	}()

	return frames, nil
}

func frameInterval(frame *rules.Snapshot) time.Duration {
	if frame == nil || frame.Speed <= 0 {
		return defaultInterval
	}
	return frame.Interval()
}

func replayGame(title string, frames *frameHolder) {
	currentFrame, err := getInitialFrame(frames)
	if err != nil {
		fmt.Println(err)
		return
	}

	if err = termbox.Init(); err != nil {
		panic(err)
	}
	defer termbox.Close()

	eventQueue := setupEventQueue()

	frameIndex := 0
	paused := false
	done := false
	draw := func() {
		msg := fmt.Sprintf("Frame %d/%d  space: pause  arrows: step  esc: quit", frameIndex+1, frames.count())
		if paused {
			msg = "Paused. " + msg
		}
		if err := render(currentFrame, title, msg); err != nil {
			panic(err)
		}
	}
	draw()
	next := time.After(frameInterval(currentFrame))

	for !done {
		select {
		case ev := <-eventQueue:
			if ev.Type != termbox.EventKey {
				continue
			}
			switch {
			case ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || ev.Ch == 'q':
				return
			case ev.Key == termbox.KeySpace:
				paused = !paused
				if !paused {
					next = time.After(frameInterval(currentFrame))
				}
				draw()
			case ev.Key == termbox.KeyArrowLeft:
				paused = true
				frameIndex, currentFrame = moveFrameBackwards(frameIndex, frames)
				draw()
			case ev.Key == termbox.KeyArrowRight:
				paused = true
				if i, f, end := moveFrameForwards(frameIndex, frames); !end {
					frameIndex, currentFrame = i, f
				}
				draw()
			}
		case <-next:
			if paused {
				continue
			}
			i, f, end := moveFrameForwards(frameIndex, frames)
			if end {
				// a live session may still be sending frames
				if sessionID != "" {
					next = time.After(defaultInterval)
					continue
				}
				done = true
				break
			}
			frameIndex, currentFrame = i, f
			draw()
			next = time.After(frameInterval(currentFrame))
		}
	}

	tbprint(left, 0, defaultColor, defaultColor, "Press any key to exit...")
	if err = termbox.Flush(); err != nil {
		log.WithError(err).Error("Error while flushing termbox")
		return
	}
	<-eventQueue
}

func getInitialFrame(frames *frameHolder) (*rules.Snapshot, error) {
	select {
	case f := <-frames.initialFrame():
		return f, nil
	case <-time.After(2 * time.Second):
		return nil, errors.New("unable to find initial frame for game")
	}
}
