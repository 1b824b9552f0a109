// nerdata loads a split of a sequence-labeling corpus the way training does, and prints what the
// model would see: the number of sentences, the first batch decoded back from its arrays, the
// configured optimizer and a preview of its learning rate decay.
//
// Usage:
//
//	nerdata -config train.yaml -vocab vocab.json -mode train -show 5 -decay 0.05 -iterations 1000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-ner/checkpoint"
	"github.com/gomlx/go-ner/config"
	"github.com/gomlx/go-ner/dataset"
	"github.com/gomlx/go-ner/optimizer"
	"github.com/gomlx/go-ner/training"
	"github.com/gomlx/go-ner/vocab"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagConfig     = flag.String("config", "", "Configuration file (YAML or JSON) with \"dataset\" and \"optimizer\" sections.")
	flagVocab      = flag.String("vocab", "", "Vocabulary JSON file.")
	flagMode       = flag.String("mode", string(dataset.ModeTrain), "Split to load: train, validation or test.")
	flagDevice     = flag.Int("device", -1, "Device for the arrays: negative for host memory.")
	flagShow       = flag.Int("show", 3, "Number of sentences of the first batch to print.")
	flagDecay      = flag.Float64("decay", 0, "If > 0, preview the learning rate decay with this decay factor.")
	flagTarget     = flag.Float64("target", 0, "If > 0, target value where the learning rate decay stops.")
	flagIterations = flag.Int("iterations", 1000, "Number of iterations of the learning rate decay preview.")
	flagCheckpoint = flag.String("checkpoint", "", "If set, save the state of the decay preview to this file.")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	entityStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	unkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagConfig == "" || *flagVocab == "" {
		fmt.Fprintln(os.Stderr, "nerdata: -config and -vocab are required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(); err != nil {
		klog.Errorf("nerdata failed: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseFile(*flagConfig)
	if err != nil {
		return err
	}
	v, err := vocab.NewFromFile(*flagVocab)
	if err != nil {
		return err
	}
	if err := showDataset(cfg, v); err != nil {
		return err
	}
	if cfg.Section("optimizer").Has("name") {
		return showOptimizer(cfg.Section("optimizer"))
	}
	return nil
}

func showDataset(cfg *config.File, v *vocab.Vocabulary) error {
	dsCfg, err := dataset.ConfigFromParams(cfg.Section("dataset"))
	if err != nil {
		return err
	}
	transformer := dataset.NewTransformer(v)
	mode := dataset.Mode(*flagMode)
	ds, err := dataset.New(v, dsCfg, mode, transformer.Transform, dataset.WithOriginalSentence())
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %s sentences", mode, humanize.Comma(int64(ds.Len())))))
	fmt.Printf("vocabulary: %s words, %s chars, %s tags\n",
		humanize.Comma(int64(v.Words.Len())), humanize.Comma(int64(v.Chars.Len())), humanize.Comma(int64(v.Tags.Len())))

	converter, err := dataset.ConverterForDevice(*flagDevice)
	if err != nil {
		return err
	}
	examples := ds.Examples(0, *flagShow)
	batch, err := converter.Convert(examples)
	if err != nil {
		return err
	}
	if batch.Tags == nil {
		fmt.Println(dimStyle.Render("(untagged split)"))
		for _, ex := range examples {
			fmt.Println(strings.Join(ex.Original, " "))
		}
		return nil
	}
	words, tags, err := transformer.InverseTransformArrays(batch.Words, batch.Tags)
	if err != nil {
		return errors.WithMessage(err, "decoding first batch")
	}
	for ii := range words {
		fmt.Println(renderSentence(examples[ii].Original, words[ii], tags[ii]))
	}
	return nil
}

// renderSentence prints each word with its tag. Words the vocabulary doesn't know are
// shown as read from the corpus, highlighted.
func renderSentence(original, words, tags []string) string {
	parts := make([]string, len(words))
	for ii, word := range words {
		if word == vocab.UnknownToken {
			word = unkStyle.Render(original[ii])
		}
		switch tags[ii] {
		case "O":
			parts[ii] = word
		case vocab.UnknownToken:
			parts[ii] = word + dimStyle.Render("/?")
		default:
			parts[ii] = word + entityStyle.Render("/"+tags[ii])
		}
	}
	return strings.Join(parts, " ")
}

func showOptimizer(p config.Params) error {
	opt, err := optimizer.Create(p)
	if err != nil {
		return err
	}
	if _, err = optimizer.AddHooks(opt, p); err != nil {
		return err
	}
	hookNames := make([]string, len(opt.Hooks()))
	for ii, hook := range opt.Hooks() {
		hookNames[ii] = hook.Name()
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("optimizer: %s", opt.Name())))
	fmt.Printf("hooks: [%s]\n", strings.Join(hookNames, ", "))
	if *flagDecay <= 0 {
		return nil
	}

	attr := optimizer.LR
	if opt.Name() == "adam" {
		attr = optimizer.Alpha
	}
	rate, err := opt.Hyperparameter(attr)
	if err != nil {
		return err
	}
	var decayOpts []training.DecayOption
	if *flagTarget > 0 {
		decayOpts = append(decayOpts, training.WithTarget(*flagTarget))
	}
	decay := training.NewLearningRateDecay(attr, rate, *flagDecay, decayOpts...)
	trainer := training.Optimizers{training.MainOptimizer: opt}
	if err := decay.Initialize(trainer); err != nil {
		return err
	}
	for ii := 1; ii <= *flagIterations; ii++ {
		if err := decay.Step(trainer); err != nil {
			return err
		}
		if ii == 1 || ii%max(*flagIterations/10, 1) == 0 {
			value, _ := decay.Value()
			fmt.Printf("  iteration %6s: %s=%.6g\n", humanize.Comma(int64(ii)), attr, value)
		}
	}

	if *flagCheckpoint != "" {
		s := checkpoint.New()
		if err := decay.Save(s, training.LearningRateDecayName); err != nil {
			return err
		}
		if err := checkpoint.Save(context.Background(), *flagCheckpoint, s); err != nil {
			return err
		}
		fmt.Printf("saved decay state to %q\n", *flagCheckpoint)
	}
	return nil
}
