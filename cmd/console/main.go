package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/api"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
)

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
	snap2recipe, stoppable, err := api.NewAPI(config)
	if err != nil {
		return err
	}
	defer stoppable.Stop()
	rl, err := readline.New("photo> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	notifier := domain.NotifierFunc(func(ctx context.Context, text string) error {
		_, err := fmt.Fprintln(rl.Stdout(), text)
		return err
	})
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or Ctrl+C
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// A line is either a local path or a message with a link.
		ref := domain.NewImageReference(line)
		if _, statErr := os.Stat(line); statErr != nil {
			if found, ok := snap2recipe.FindImageReference(line); ok {
				ref = found
			}
		}
		result := snap2recipe.HandlePhoto(context.Background(), ref, notifier)
		_, _ = fmt.Fprintf(rl.Stdout(), "[%s]\n", result.Outcome)
	}
	return nil
}
