package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/battlesnakeio/fruitsnake/api"
	"github.com/battlesnakeio/fruitsnake/controller/csv"
	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var (
	statusLimit = 10
	asCSV       bool
)

func init() {
	statusCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to get the status of, the leaderboard is shown without it")
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", statusLimit, "number of leaderboard entries")
	statusCmd.Flags().BoolVar(&asCSV, "csv", false, "write every frame of the game as csv")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "gets the status of a recorded game or the leaderboard",
	Run: func(*cobra.Command, []string) {
		var err error
		switch {
		case gameID == "":
			err = printLeaderboard(os.Stdout, statusLimit)
		case asCSV:
			err = exportGame(os.Stdout, gameID)
		default:
			g := &rules.Game{}
			if err = getJSON("/games/"+gameID, g); err == nil {
				spew.Dump(g)
			}
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func printLeaderboard(w io.Writer, limit int) error {
	res := &api.GamesResponse{}
	if err := getJSON(fmt.Sprintf("/games?limit=%d", limit), res); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-4s %-36s %6s %6s %-8s %s\n", "#", "GAME", "SCORE", "TURNS", "STATUS", "CREATED")
	for i, g := range res.Games {
		fmt.Fprintf(w, "%-4d %-36s %6d %6d %-8s %s\n",
			i+1, g.ID, g.Score, g.Turn, g.Status, g.Created.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func exportGame(w io.Writer, id string) error {
	g := &rules.Game{}
	if err := getJSON("/games/"+id, g); err != nil {
		return err
	}
	res := &api.FramesResponse{}
	if err := getJSON(fmt.Sprintf("/games/%s/frames?limit=0", id), res); err != nil {
		return err
	}
	return csv.WriteGame(w, g, res.Frames)
}
