package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/api"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/rss"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/web"
)

// ConfigKeyFeedConcurrency how many photos of the feed are processed at the same time.
const ConfigKeyFeedConcurrency = "feedConcurrency"

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	_ = godotenv.Load()
	config, err := common.LoadConfig("config.yaml")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	feed, err := rss.NewPhotoFeed(http.DefaultClient, web.NewURLFinder(), config)
	if err != nil {
		return err
	}
	photos, err := feed.GetPhotos(ctx)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		fmt.Println("no photos in the feed")
		return nil
	}
	snap2recipe, stoppable, err := api.NewAPI(config)
	if err != nil {
		return err
	}
	defer stoppable.Stop()
	var printMutex sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.GetIntOrDefault(ConfigKeyFeedConcurrency, 4))
	for _, photo := range photos {
		g.Go(func() error {
			notifier := newPrintingNotifier(&printMutex, photo.Title)
			result := snap2recipe.HandlePhoto(ctx, photo.Reference, notifier)
			return notifier.Notify(ctx, fmt.Sprintf("[%s]", result.Outcome))
		})
	}
	return g.Wait()
}

// newPrintingNotifier prefixes every line with the item title, since messages of concurrent items interleave.
func newPrintingNotifier(mutex *sync.Mutex, title string) domain.Notifier {
	if title == "" {
		title = "untitled"
	}
	return domain.NotifierFunc(func(ctx context.Context, text string) error {
		mutex.Lock()
		defer mutex.Unlock()
		for _, line := range strings.Split(text, "\n") {
			if _, err := fmt.Printf("[%s] %s\n", title, line); err != nil {
				return err
			}
		}
		return nil
	})
}
