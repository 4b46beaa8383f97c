package automatic

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/fourgraph/config"
	"github.com/domino14/fourgraph/store"
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

var playing atomic.Bool

// PlayGames plays the configured number of games over the configured
// number of workers. Finished games are saved to st when it is not nil,
// and turns are logged to the configured log file, if any. When ctx is
// cancelled no new games are started; the summary covers the games that
// finished.
func PlayGames(ctx context.Context, cfg *config.Config, st *store.Store) (*Summary, error) {
	if !playing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	defer playing.Store(false)

	numGames := cfg.GetInt(config.ConfigGames)
	threads := cfg.GetInt(config.ConfigThreads)
	seeds := GenerateSeeds(numGames, cfg.GetUint64(config.ConfigSeed))
	log.Debug().Int("games", numGames).Int("threads", threads).Msg("starting-games")

	var logChan chan string
	loggerDone := make(chan struct{})
	if fn := cfg.GetString(config.ConfigLogFile); fn != "" {
		logfile, err := os.Create(fn)
		if err != nil {
			return nil, err
		}
		logChan = make(chan string, 100)
		go func() {
			defer close(loggerDone)
			_, werr := logfile.WriteString(LogHeader)
			for msg := range logChan {
				// keep draining so the players never block
				if werr != nil {
					continue
				}
				if _, werr = logfile.WriteString(msg); werr != nil {
					log.Err(werr).Str("logfile", fn).Msg("turn-log-write-failed")
				}
			}
			if err := logfile.Close(); err != nil && werr == nil {
				log.Err(err).Str("logfile", fn).Msg("turn-log-close-failed")
			}
			log.Debug().Msg("exiting-turn-logger")
		}()
	} else {
		close(loggerDone)
	}

	summary := &Summary{}
	var mu sync.Mutex
	jobs := make(chan uint64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i, seed := range seeds {
			select {
			case jobs <- seed:
			case <-gctx.Done():
				log.Info().Int("queued", i).Msg("got stop signal, not queueing more games")
				return nil
			}
		}
		return nil
	})
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			r := NewGameRunner(logChan, cfg)
			for seed := range jobs {
				rec, err := r.PlayGame(gctx, seed)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				if err != nil {
					return err
				}
				if st != nil {
					if err := st.Save(gctx, rec); err != nil {
						return err
					}
				}
				mu.Lock()
				summary.Add(rec)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if logChan != nil {
		close(logChan)
	}
	<-loggerDone
	log.Info().Int("games", summary.Games()).Msg("all-games-finished")
	return summary, err
}
