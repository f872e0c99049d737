package commands

import (
	"sync"

	"github.com/battlesnakeio/fruitsnake/rules"
)

type frameHolder struct {
	sync.RWMutex
	frames []*rules.Snapshot
	ffc    chan *rules.Snapshot
	once   sync.Once
}

func (fh *frameHolder) first() chan *rules.Snapshot {
	fh.once.Do(func() { fh.ffc = make(chan *rules.Snapshot, 1) })
	return fh.ffc
}

func (fh *frameHolder) append(frame *rules.Snapshot) {
	fh.Lock()
	defer fh.Unlock()

	if len(fh.frames) == 0 {
		fh.first() <- frame
		close(fh.ffc)
	}

	fh.frames = append(fh.frames, frame)
}

func (fh *frameHolder) get(index int) *rules.Snapshot {
	fh.RLock()
	defer fh.RUnlock()

	if index < 0 || index >= len(fh.frames) {
		return nil
	}

	return fh.frames[index]
}

func (fh *frameHolder) initialFrame() <-chan *rules.Snapshot {
	return fh.first()
}

func (fh *frameHolder) count() int {
	fh.RLock()
	defer fh.RUnlock()

	return len(fh.frames)
}
