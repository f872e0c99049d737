package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/battlesnakeio/fruitsnake/api"
	"github.com/battlesnakeio/fruitsnake/rules"
)

type client struct {
	apiURL string
	client *http.Client
}

func (c *client) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) createSession(seed int64) (string, error) {
	res := &api.CreateSessionResponse{}
	err := c.do(http.MethodPost, "/sessions", &api.CreateSessionRequest{Seed: &seed}, res)
	return res.ID, err
}

func (c *client) command(sessionID, cmd string) (*rules.Snapshot, error) {
	snap := &rules.Snapshot{}
	err := c.do(http.MethodPost, fmt.Sprintf("/sessions/%s/commands", sessionID), &api.CommandRequest{Command: cmd}, snap)
	return snap, err
}

func (c *client) session(sessionID string) (*rules.Snapshot, error) {
	snap := &rules.Snapshot{}
	err := c.do(http.MethodGet, "/sessions/"+sessionID, nil, snap)
	return snap, err
}

func (c *client) endSession(sessionID string) error {
	return c.do(http.MethodDelete, "/sessions/"+sessionID, nil, nil)
}

func (c *client) gameStatus(gameID string) (*rules.Game, *api.FramesResponse, error) {
	g := &rules.Game{}
	if err := c.do(http.MethodGet, "/games/"+gameID, nil, g); err != nil {
		return nil, nil, err
	}
	frames := &api.FramesResponse{}
	if err := c.do(http.MethodGet, fmt.Sprintf("/games/%s/frames?limit=0", gameID), nil, frames); err != nil {
		return nil, nil, err
	}
	return g, frames, nil
}
