package filestore

import (
	"encoding/json"
	"os"

	"github.com/battlesnakeio/fruitsnake/rules"
)

var openFileWriter = appendOnlyFileWriter

type writer interface {
	WriteString(s string) (int, error)
	Close() error
}

func requireSaveDir(directory string) error {
	return os.MkdirAll(directory, 0775)
}

func writeLine(w writer, data interface{}) error {
	j, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.WriteString(string(j) + "\n")
	return err
}

func writeFrame(w writer, f *rules.Snapshot) error {
	return writeLine(w, &entry{Frame: f})
}

func writeGameInfo(w writer, game *rules.Game) error {
	return writeLine(w, &entry{Game: game})
}

func writeStatus(w writer, status rules.GameStatus) error {
	return writeLine(w, &entry{Status: status})
}

func appendOnlyFileWriter(directory, id string, mustCreate bool) (writer, error) {
	if err := requireSaveDir(directory); err != nil {
		return nil, err
	}

	path := getFilePath(directory, id)
	flags := os.O_APPEND | os.O_WRONLY | os.O_CREATE
	if mustCreate {
		flags |= os.O_EXCL
	}
	return os.OpenFile(path, flags, 0644)
}
