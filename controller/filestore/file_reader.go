package filestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/battlesnakeio/fruitsnake/controller"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/pkg/errors"
)

var openFileReader = readOnlyFileReader

type reader interface {
	ReadBytes(delimiter byte) ([]byte, error)
	Close() error
}

type fileReader struct {
	*bufio.Reader
	f *os.File
}

func (r *fileReader) Close() error { return r.f.Close() }

func readOnlyFileReader(directory, id string) (reader, error) {
	f, err := os.OpenFile(getFilePath(directory, id), os.O_RDONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &fileReader{Reader: bufio.NewReader(f), f: f}, nil
}

// readLine reads the next entry into out, ok is false once the end of the
// file is reached. Blank lines are skipped.
func readLine(r reader, out *entry) (bool, error) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if jsonErr := json.Unmarshal(line, out); jsonErr != nil {
				return false, jsonErr
			}
			return true, nil
		}
		if err == io.EOF {
			return false, nil
		}
	}
}

func readArchive(r reader) (*rules.Game, []*rules.Snapshot, error) {
	header := entry{}
	ok, err := readLine(r, &header)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to read game info")
	}
	if !ok || header.Game == nil {
		return nil, nil, errors.New("game file has no game info")
	}

	game := header.Game
	frames := []*rules.Snapshot{}
	for {
		e := entry{}
		ok, err := readLine(r, &e)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to read frame %d", len(frames))
		}
		if !ok {
			break
		}
		if e.Frame != nil {
			frames = append(frames, e.Frame)
			controller.UpdateGame(game, e.Frame)
		}
		if e.Status != "" {
			game.Status = e.Status
		}
	}
	return game, frames, nil
}

var framePrefix = []byte(`{"frame":`)

// readSummary reads the game info and its latest state without decoding
// every frame: only the last frame and the status changes after it matter.
func readSummary(r reader) (*rules.Game, error) {
	header := entry{}
	ok, err := readLine(r, &header)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read game info")
	}
	if !ok || header.Game == nil {
		return nil, errors.New("game file has no game info")
	}

	game := header.Game
	var lastFrame []byte
	var status rules.GameStatus
	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasPrefix(line, framePrefix):
			lastFrame = line
			status = ""
		default:
			e := entry{}
			if jsonErr := json.Unmarshal(line, &e); jsonErr != nil {
				return nil, jsonErr
			}
			if e.Status != "" {
				status = e.Status
			}
		}
		if err == io.EOF {
			break
		}
	}

	if lastFrame != nil {
		e := entry{}
		if err := json.Unmarshal(lastFrame, &e); err != nil {
			return nil, errors.Wrap(err, "unable to read last frame")
		}
		controller.UpdateGame(game, e.Frame)
	}
	if status != "" {
		game.Status = status
	}
	return game, nil
}

// ReadGameSummary loads the game info and latest state stored in a file.
func ReadGameSummary(directory, id string) (*rules.Game, error) {
	r, err := openFileReader(directory, id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, controller.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()

	return readSummary(r)
}

// ReadGame loads the game stored in a file with the given id.
func ReadGame(directory, id string) (*rules.Game, []*rules.Snapshot, error) {
	r, err := openFileReader(directory, id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, controller.ErrNotFound
		}
		return nil, nil, err
	}
	defer r.Close()

	return readArchive(r)
}

func listGameIDs(directory string) ([]string, error) {
	files, err := ioutil.ReadDir(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ids := []string{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(f.Name(), fileExt))
	}
	return ids, nil
}
