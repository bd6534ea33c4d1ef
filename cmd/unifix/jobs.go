package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quailyquaily/unifix"
	"github.com/quailyquaily/unifix/repair"
)

type jobFile struct {
	Fallback *bool       `yaml:"fallback"`
	Indent   int         `yaml:"indent"`
	Jobs     []jobConfig `yaml:"jobs"`
}

type jobConfig struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Mode   string `yaml:"mode"`
	// Output receives the repaired or prettified text when set.
	Output string `yaml:"output"`
}

type jobResult struct {
	Name         string
	Path         string
	Format       repair.Format
	Mode         string
	Success      bool
	UsedFallback bool
	Fixes        int
	Errors       []string
	Duration     time.Duration
}

func loadJobs(path string) (*jobFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var jf jobFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&jf); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("config has no jobs")
	}

	base := filepath.Dir(path)
	seen := map[string]struct{}{}
	for i := range jf.Jobs {
		j := &jf.Jobs[i]
		if strings.TrimSpace(j.Path) == "" {
			return nil, fmt.Errorf("jobs[%d].path is required", i)
		}
		if j.Name == "" {
			j.Name = filepath.Base(j.Path)
		}
		if _, ok := seen[j.Name]; ok {
			return nil, fmt.Errorf("duplicate job name %q", j.Name)
		}
		seen[j.Name] = struct{}{}
		switch j.Mode {
		case "":
			j.Mode = modeRepair
		case modeRepair, modeValidate, modePrettify:
		default:
			return nil, fmt.Errorf("jobs[%d].mode %q is not repair|validate|prettify", i, j.Mode)
		}
		if _, err := unifix.ParseFormat(j.Format); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		j.Path = resolve(base, j.Path)
		if j.Output != "" {
			j.Output = resolve(base, j.Output)
		}
	}
	if jf.Indent <= 0 {
		jf.Indent = defaultIndent
	}
	return &jf, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func runBatch(ctx context.Context, cfg unifix.Config, configPath, outputPath string, stdout io.Writer) error {
	jf, err := loadJobs(configPath)
	if err != nil {
		return err
	}
	if jf.Fallback != nil {
		cfg.UseFallback = *jf.Fallback
	}
	client := unifix.New(cfg)

	results := make([]jobResult, 0, len(jf.Jobs))
	failed := false
	for _, j := range jf.Jobs {
		r := runJob(ctx, client, j, jf.Indent)
		status := "ok"
		if !r.Success {
			status = "failed"
			failed = true
		}
		fmt.Fprintf(stdout, "%-24s %-8s %-4s %s fixes=%d\n", r.Name, r.Mode, r.Format, status, r.Fixes)
		results = append(results, r)
	}

	if outputPath != "" {
		if err := writeSummary(outputPath, results); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nCSV written: %s\n", outputPath)
	}
	if failed {
		return errFailed
	}
	return nil
}

func runJob(ctx context.Context, client *unifix.Client, j jobConfig, indent int) jobResult {
	start := time.Now()
	r := jobResult{Name: j.Name, Path: j.Path, Mode: j.Mode}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		r.Errors = []string{err.Error()}
		r.Duration = time.Since(start)
		return r
	}
	text := string(data)
	format, _ := unifix.ParseFormat(j.Format)
	if format == "" {
		format = unifix.Detect(text)
	}
	r.Format = format

	var out string
	switch j.Mode {
	case modeValidate:
		v, err := client.Validate(format, text)
		if err != nil {
			r.Errors = []string{err.Error()}
			break
		}
		r.Success = v.Valid
		for _, issue := range v.Issues {
			r.Errors = append(r.Errors, issue.Error())
		}
	case modePrettify:
		out, err = client.Prettify(format, text, indent)
		if err != nil {
			r.Errors = []string{err.Error()}
			break
		}
		r.Success = true
	default:
		res, err := client.Repair(ctx, format, text)
		if err != nil {
			r.Errors = []string{err.Error()}
			break
		}
		r.Success = res.Success
		r.UsedFallback = res.UsedFallback
		r.Fixes = len(res.AppliedFixes)
		for _, e := range res.Errors {
			r.Errors = append(r.Errors, e.Error())
		}
		out = res.FixedText
	}

	if r.Success && j.Output != "" && j.Mode != modeValidate {
		if err := os.WriteFile(j.Output, []byte(out), 0o644); err != nil {
			r.Success = false
			r.Errors = append(r.Errors, fmt.Sprintf("write %q: %v", j.Output, err))
		}
	}
	r.Duration = time.Since(start)
	return r
}
