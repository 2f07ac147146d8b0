package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/cherry/pkg/bayes"
	"github.com/mchmarny/cherry/pkg/token"
	urfave "github.com/urfave/cli/v3"
)

const (
	fileFlagName = "file"
	topFlagName  = "top"
)

func newFileFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:    fileFlagName,
		Aliases: []string{"f"},
		Usage:   "Read the text from file ('-' for stdin)",
	}
}

func newTopFlag() *urfave.IntFlag {
	return &urfave.IntFlag{
		Name:  topFlagName,
		Usage: "Number of most decisive words to print, 0 for all (default: from config)",
		Value: -1,
	}
}

func newClassifyCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "classify",
		Aliases:   []string{"c"},
		Usage:     "Classify a text and explain which words drove the decision",
		ArgsUsage: "[text...]",
		UsageText: `cherry classify "win a free cruise"            # classify text argument
   cherry classify --lang zh --file message.txt   # classify file content
   echo "meeting at noon" | cherry classify       # classify stdin`,
		HideHelpCommand: true,
		Action:          cmdClassify,
		Flags: []urfave.Flag{
			newFileFlag(),
			newTopFlag(),
		},
	}
}

// Classification is the printed outcome of a single document.
type Classification struct {
	Language string             `json:"language" yaml:"language"`
	Label    string             `json:"label" yaml:"label"`
	Classes  []bayes.Ranked     `json:"classes" yaml:"classes"`
	Words    []bayes.WordMargin `json:"words" yaml:"words"`
}

// classifier ties a model to the tokenizer of its language.
type classifier struct {
	lang  string
	model *bayes.Model
	tk    token.Tokenizer
}

// supportedLanguage normalizes lang and rejects languages without a tokenizer.
func supportedLanguage(lang string) (string, error) {
	tk, err := token.New(lang)
	if err != nil {
		return "", fmt.Errorf("checking language: %w", err)
	}
	return tk.Language(), nil
}

func newClassifier(cfg *appConfig, lang string) (*classifier, error) {
	tk, err := token.New(lang)
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	m, err := loadModel(cfg, tk.Language())
	if err != nil {
		return nil, err
	}
	return &classifier{lang: tk.Language(), model: m, tk: tk}, nil
}

func (c *classifier) classify(text string, top int) (*Classification, error) {
	tokens := c.tk.Tokenize(text)
	res, err := c.model.Classify(tokens)
	if err != nil {
		return nil, fmt.Errorf("classifying: %w", err)
	}
	slog.Debug("classified", "lang", c.lang, "tokens", len(tokens), "label", res.Winner().Label, "words", len(res.Words))
	return &Classification{
		Language: c.lang,
		Label:    res.Winner().Label,
		Classes:  res.Classes,
		Words:    res.TopWords(top),
	}, nil
}

func cmdClassify(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	text, err := readText(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return urfave.ShowSubcommandHelp(cmd)
	}

	c, err := newClassifier(cfg, cfg.Language)
	if err != nil {
		return err
	}

	res, err := c.classify(text, topWords(cmd, cfg))
	if err != nil {
		return err
	}

	if err := encode(cmd.Root().Writer, cfg.Format, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func topWords(cmd *urfave.Command, cfg *appConfig) int {
	if n := cmd.Int(topFlagName); n >= 0 {
		return n
	}
	return cfg.TopWords
}

// readText returns the text from the args, the file flag or stdin, in that order.
func readText(cmd *urfave.Command) (string, error) {
	if cmd.Args().Len() > 0 {
		return strings.Join(cmd.Args().Slice(), " "), nil
	}

	r, closer, err := openInput(cmd)
	if err != nil {
		return "", err
	}
	defer closer()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(b), nil
}

func openInput(cmd *urfave.Command) (io.Reader, func(), error) {
	path := cmd.String(fileFlagName)
	if path == "" || path == "-" {
		return cmd.Root().Reader, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
