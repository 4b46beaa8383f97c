package automatic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/domino14/fourgraph/stats"
)

// AnalyzeLogFile reads a turn log written by PlayGames and reports how
// long the games were and how large the graph grew.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)

	// Record looks like:
	// gameID,ply,player,choice,score,height,livenodes
	plies := map[string]int{}
	var order []string
	liveNodes := &stats.Statistic{}
	columns := [7]int{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			continue
		}
		if len(record) != 7 {
			return "", fmt.Errorf("bad record %v", record)
		}
		ply, err := strconv.Atoi(record[1])
		if err != nil {
			return "", err
		}
		choice, err := strconv.Atoi(record[3])
		if err != nil {
			return "", err
		}
		live, err := strconv.Atoi(record[6])
		if err != nil {
			return "", err
		}
		if _, ok := plies[record[0]]; !ok {
			order = append(order, record[0])
		}
		plies[record[0]] = max(plies[record[0]], ply)
		if choice >= 0 && choice < len(columns) {
			columns[choice]++
		}
		liveNodes.Push(float64(live))
	}

	lengths := &stats.Statistic{}
	for _, id := range order {
		lengths.Push(float64(plies[id]))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games: %d\n", len(order))
	fmt.Fprintf(&sb, "Game length: %.2f +/- %.2f plies\n", lengths.Mean(), lengths.Stdev())
	fmt.Fprintf(&sb, "Live nodes after a move: %.0f +/- %.0f\n", liveNodes.Mean(), liveNodes.Stdev())
	fmt.Fprintf(&sb, "Moves per column: %v\n", columns)
	return sb.String(), nil
}
