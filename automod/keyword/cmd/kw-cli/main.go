package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kickguard/bouncer/automod/keyword"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:  "kw-cli",
		Usage: "informal debugging CLI tool for scam signal matching",
	}
	app.Commands = []*cli.Command{
		&cli.Command{
			Name:   "detect",
			Usage:  "reads lines of display text from stdin, outputs lines which trigger the detector",
			Action: runDetect,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "rules-file",
					Usage: "path to YAML file with keyword and co-occurrence rules (default: built-in rules)",
				},
				&cli.BoolFlag{
					Name:  "all",
					Usage: "also print lines which did not match",
				},
			},
		},
		&cli.Command{
			Name:   "fold",
			Usage:  "reads lines of text from stdin, outputs the folded form used for matching",
			Action: runFold,
		},
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(h))
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(-1)
	}
}

func runDetect(cctx *cli.Context) error {
	rules := keyword.DefaultRules()
	if p := cctx.String("rules-file"); p != "" {
		r, err := keyword.LoadRulesFile(p)
		if err != nil {
			return err
		}
		rules = r
	}
	det := keyword.NewDetector(rules)
	showAll := cctx.Bool("all")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		m, ok := det.Match(line)
		if ok {
			fmt.Printf("MATCH\t%s\t%s\t%s\n", m.Rule, strings.Join(m.Markers, "+"), line)
		} else if showAll {
			fmt.Printf("PASS\t\t\t%s\n", line)
		}
	}
	return scanner.Err()
}

func runFold(cctx *cli.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fmt.Println(keyword.FoldText(scanner.Text()))
	}
	return scanner.Err()
}
