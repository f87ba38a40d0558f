package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	internal "github.com/ZanzyTHEbar/bpe-tokenizer/bpet"
	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/corpus"
	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/store"
	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/tokenizer"

	"github.com/google/uuid"
)

// modelFlags selects a model from a JSON file or, with -name, from the store.
type modelFlags struct {
	path string
	name string
}

func (m *modelFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&m.path, "model", internal.DefaultModelFile, "model JSON file")
	fs.StringVar(&m.name, "name", "", "load the latest stored model with this name instead of -model")
}

func (m *modelFlags) load(ctx context.Context, e *env) (*tokenizer.Model, error) {
	if m.name == "" {
		return tokenizer.LoadModel(m.path)
	}
	s, err := store.Open(e.cfg.Store.DSN, store.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	model, info, err := s.GetLatestModel(ctx, m.name)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", m.name, err)
	}
	e.logger.Debug().Str("id", info.ID.String()).Int("vocab_size", info.VocabSize).Msg("using stored model")
	return model, nil
}

func newEncoder(e *env, m *tokenizer.Model) (*tokenizer.Encoder, error) {
	n, err := tokenizer.ParseNormalization(e.cfg.Training.Normalization)
	if err != nil {
		return nil, err
	}
	return tokenizer.NewEncoder(m, tokenizer.EncoderConfig{CacheSize: e.cfg.Encoder.CacheSize, Normalizer: n})
}

func runTrain(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	vocabSize := fs.Int("vocab", e.cfg.Training.VocabSize, "target vocabulary size")
	maxIter := fs.Int("max-iterations", e.cfg.Training.MaxIterations, "merge cap, 0 for none")
	dir := fs.String("corpus", e.cfg.Corpus.Dir, "corpus directory; empty uses the built-in sample")
	out := fs.String("out", internal.DefaultModelFile, "model JSON output path, empty to skip")
	name := fs.String("name", "", "also save the model to the store under this name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var texts []string
	if *dir == "" {
		e.logger.Info().Msg("no corpus directory configured, training on the built-in sample")
		texts = corpus.Sample()
	} else {
		loader := corpus.NewLoader(*dir,
			corpus.WithExtensions(e.cfg.Corpus.Extensions...),
			corpus.WithIgnoreFile(e.cfg.Corpus.IgnoreFile),
			corpus.WithWorkers(e.cfg.Corpus.Workers),
			corpus.WithLogger(e.logger),
		)
		var err error
		if texts, err = loader.Load(ctx); err != nil {
			return err
		}
	}

	n, err := tokenizer.ParseNormalization(e.cfg.Training.Normalization)
	if err != nil {
		return err
	}
	trainer := tokenizer.NewTrainer(
		tokenizer.WithLogger(e.logger),
		tokenizer.WithMaxIterations(*maxIter),
		tokenizer.WithLogEvery(e.cfg.Training.LogEvery),
		tokenizer.WithNormalizer(n),
	)
	m, err := trainer.Train(texts, *vocabSize)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := tokenizer.SaveModel(*out, m); err != nil {
			return err
		}
		e.logger.Info().Str("path", *out).Msg("model written")
	}
	if *name != "" {
		s, err := store.Open(e.cfg.Store.DSN, store.WithLogger(e.logger))
		if err != nil {
			return err
		}
		defer s.Close()
		info, err := s.SaveModel(ctx, *name, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "stored %s as %s\n", *name, info.ID)
	}

	fmt.Fprintf(e.stdout, "vocabulary %d, merges %d\n", m.Vocabulary.Len(), m.Merges.Len())
	return nil
}

func runEncode(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	var mf modelFlags
	mf.register(fs)
	tokens := fs.Bool("tokens", false, "print symbols instead of ids")
	lines := fs.Bool("lines", false, "encode each input line as one row, padded per the encoder config")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := mf.load(ctx, e)
	if err != nil {
		return err
	}
	enc, err := newEncoder(e, m)
	if err != nil {
		return err
	}
	text, err := readText(e, fs.Args())
	if err != nil {
		return err
	}
	if *lines {
		return encodeLines(ctx, e, enc, text)
	}
	ids, err := enc.Encode(text)
	if err != nil {
		return err
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		if *tokens {
			out[i], _ = m.Vocabulary.Symbol(id)
		} else {
			out[i] = strconv.Itoa(id)
		}
	}
	fmt.Fprintln(e.stdout, strings.Join(out, " "))
	return nil
}

// encodeLines runs every non-empty line through a BatchTokenizer and prints
// one row of ids per line.
func encodeLines(ctx context.Context, e *env, enc *tokenizer.Encoder, text string) error {
	var texts []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			texts = append(texts, line)
		}
	}

	bt := tokenizer.NewBatchTokenizer(enc, tokenizer.Config{
		MaxSeqLen: e.cfg.Encoder.MaxSeqLen,
		PadID:     int64(e.cfg.Encoder.PadID),
		Workers:   e.cfg.Encoder.Workers,
	})
	rows, _, err := bt.TokenizeContext(ctx, texts)
	if err != nil {
		return err
	}
	for _, row := range rows {
		out := make([]string, len(row))
		for i, id := range row {
			out[i] = strconv.FormatInt(id, 10)
		}
		fmt.Fprintln(e.stdout, strings.Join(out, " "))
	}
	return nil
}

func runDecode(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var mf modelFlags
	mf.register(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := mf.load(ctx, e)
	if err != nil {
		return err
	}
	dec, err := tokenizer.NewDecoder(m)
	if err != nil {
		return err
	}
	raw, err := readText(e, fs.Args())
	if err != nil {
		return err
	}

	fields := strings.Fields(raw)
	ids := make([]int, len(fields))
	for i, f := range fields {
		if ids[i], err = strconv.Atoi(f); err != nil {
			return fmt.Errorf("invalid token id %q: %w", f, err)
		}
	}
	text, err := dec.Decode(ids)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, text)
	return nil
}

func runPresegment(_ context.Context, e *env, args []string) error {
	text, err := readText(e, args)
	if err != nil {
		return err
	}
	for _, w := range tokenizer.Presegment([]string{text}) {
		fmt.Fprintln(e.stdout, w)
	}
	return nil
}

func runVocab(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("vocab", flag.ContinueOnError)
	var mf modelFlags
	mf.register(fs)
	prefix := fs.String("prefix", "", "only symbols starting with this prefix")
	expand := fs.Bool("expand", false, "show what each symbol was merged from")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := mf.load(ctx, e)
	if err != nil {
		return err
	}
	dec, err := tokenizer.NewDecoder(m)
	if err != nil {
		return err
	}
	for _, sym := range m.Vocabulary.WithPrefix(*prefix) {
		id, _ := m.Vocabulary.ID(sym)
		if *expand {
			fmt.Fprintf(e.stdout, "%d\t%s\t%s\n", id, sym, strings.Join(dec.Expand(sym), " "))
			continue
		}
		fmt.Fprintf(e.stdout, "%d\t%s\n", id, sym)
	}
	return nil
}

func runStats(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	var mf modelFlags
	mf.register(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := mf.load(ctx, e)
	if err != nil {
		return err
	}
	enc, err := newEncoder(e, m)
	if err != nil {
		return err
	}
	text, err := readText(e, fs.Args())
	if err != nil {
		return err
	}
	st, err := enc.Stats(text)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "words\t%d\ntokens\t%d\ncharacters\t%d\n", st.Words, st.Tokens, st.Characters)
	fmt.Fprintf(e.stdout, "tokens/word\t%.3f ± %.3f\nchars/token\t%.3f\n",
		st.MeanTokensPerWord, st.StdDevTokensPerWord, st.CharsPerToken)
	return nil
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var mf modelFlags
	mf.register(fs)
	dir := fs.String("dir", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	m, err := mf.load(ctx, e)
	if err != nil {
		return err
	}
	vocabPath, mergesPath, err := tokenizer.ExportHF(m, *dir)
	if err != nil {
		return err
	}

	// reload through an independent BPE implementation as a sanity check
	hf, err := tokenizer.NewSugarBPE(*dir)
	if err != nil {
		return err
	}
	if hf.VocabSize() != m.Vocabulary.Len() {
		return fmt.Errorf("exported vocabulary has %d symbols, model has %d", hf.VocabSize(), m.Vocabulary.Len())
	}

	fmt.Fprintln(e.stdout, vocabPath)
	fmt.Fprintln(e.stdout, mergesPath)
	return nil
}

func runModels(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	del := fs.String("delete", "", "delete the model with this id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	s, err := store.Open(e.cfg.Store.DSN, store.WithLogger(e.logger))
	if err != nil {
		return err
	}
	defer s.Close()

	if *del != "" {
		id, err := uuid.Parse(*del)
		if err != nil {
			return fmt.Errorf("invalid model id %q: %w", *del, err)
		}
		return s.DeleteModel(ctx, id)
	}

	models, err := s.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, info := range models {
		fmt.Fprintf(e.stdout, "%s\t%s\t%d\t%d\t%s\n",
			info.ID, info.Name, info.VocabSize, info.Merges, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
