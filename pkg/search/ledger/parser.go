package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"memex-be/pkg/search/index"
)

var (
	transactionPattern = regexp.MustCompile(`^(\d{4}[-/]\d{2}[-/]\d{2})(?:=\S+)?\s+(.*)$`)
	quotedPattern      = regexp.MustCompile(`"([^"]*)"`)
	postingPattern     = regexp.MustCompile(`^\s+([A-Za-z][^\s;]*(?::[^\s;]+)*)`)
	directivePattern   = regexp.MustCompile(`^(open|close|balance|pad|price|note|document|event|commodity|custom|query)\b`)
)

// ParseFiles extracts transactions from every ledger or beancount file.
func ParseFiles(paths []string) ([]index.Entry, error) {
	var entries []index.Entry
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open ledger file: %w", err)
		}
		parsed, err := Parse(f, p)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		entries = append(entries, parsed...)
	}
	return entries, nil
}

// Parse reads transactions: a date-led header line followed by indented
// postings. Directives and comments outside transactions are ignored.
func Parse(r io.Reader, file string) ([]index.Entry, error) {
	var (
		entries []index.Entry
		lines   []string
	)

	flush := func() {
		if len(lines) > 0 {
			entries = append(entries, transaction(lines, file))
			lines = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case isTransaction(line):
			flush()
			lines = []string{line}
		case len(lines) > 0 && strings.TrimSpace(line) != "" && (line[0] == ' ' || line[0] == '\t'):
			lines = append(lines, line)
		default:
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return entries, nil
}

// isTransaction rejects dated beancount directives such as "2024-01-01 open".
func isTransaction(line string) bool {
	m := transactionPattern.FindStringSubmatch(line)
	return m != nil && !directivePattern.MatchString(m[2])
}

func transaction(lines []string, file string) index.Entry {
	m := transactionPattern.FindStringSubmatch(lines[0])
	date, rest := m[1], strings.TrimSpace(m[2])

	meta := map[string]string{"date": date}
	description := rest
	if quoted := quotedPattern.FindAllStringSubmatch(rest, -1); len(quoted) > 0 {
		// beancount: txn flag, then "payee" "narration" or just "narration"
		if len(quoted) >= 2 {
			meta["payee"] = quoted[0][1]
			meta["narration"] = quoted[1][1]
		} else {
			meta["narration"] = quoted[0][1]
		}
		description = strings.TrimSpace(meta["payee"] + " " + meta["narration"])
	} else {
		// ledger: optional cleared/pending mark, then payee
		payee := strings.TrimSpace(strings.TrimLeft(rest, "*! "))
		if i := strings.Index(payee, ";"); i >= 0 {
			payee = strings.TrimSpace(payee[:i])
		}
		meta["payee"] = payee
		description = payee
	}

	var accounts []string
	for _, l := range lines[1:] {
		if pm := postingPattern.FindStringSubmatch(l); pm != nil {
			accounts = append(accounts, pm[1])
		}
	}
	if len(accounts) > 0 {
		meta["accounts"] = strings.Join(accounts, ",")
	}

	return index.Entry{
		Compiled: strings.TrimSpace(date + " " + description + " " + strings.Join(accounts, " ")),
		Raw:      strings.Join(lines, "\n"),
		File:     file,
		Meta:     meta,
	}
}
