package predicate

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenOther tokenKind = iota
	tokenSpace
	tokenWord
	tokenString
	tokenOperator
)

type token struct {
	kind tokenKind
	text string
}

var keywordRewrites = map[string]string{
	"and":   "and",
	"or":    "or",
	"not":   "not",
	"in":    "in",
	"true":  "True",
	"false": "False",
	"null":  "None",
}

func isWordRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}

	return !first && unicode.IsDigit(r)
}

func isOperatorRune(r rune) bool {
	return r == '<' || r == '>' || r == '=' || r == '!'
}

func tokenize(expression string) ([]token, error) {
	var (
		runes  = []rune(expression)
		tokens []token
	)

	for cursor := 0; cursor < len(runes); {
		var (
			start = cursor
			next  = runes[cursor]
		)

		switch {
		case next == '\'' || next == '"':
			cursor++

			for cursor < len(runes) && runes[cursor] != next {
				if runes[cursor] == '\\' {
					cursor++
				}

				cursor++
			}

			if cursor >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal starting at offset %d", start)
			}

			cursor++
			tokens = append(tokens, token{kind: tokenString, text: string(runes[start:cursor])})

		case unicode.IsSpace(next):
			for cursor < len(runes) && unicode.IsSpace(runes[cursor]) {
				cursor++
			}

			tokens = append(tokens, token{kind: tokenSpace, text: " "})

		case isWordRune(next, true):
			for cursor < len(runes) && isWordRune(runes[cursor], false) {
				cursor++
			}

			tokens = append(tokens, token{kind: tokenWord, text: string(runes[start:cursor])})

		case isOperatorRune(next):
			for cursor < len(runes) && isOperatorRune(runes[cursor]) {
				cursor++
			}

			tokens = append(tokens, token{kind: tokenOperator, text: string(runes[start:cursor])})

		default:
			cursor++
			tokens = append(tokens, token{kind: tokenOther, text: string(next)})
		}
	}

	return tokens, nil
}

// nextWord returns the index of the next word token after idx, skipping whitespace, or -1.
func nextWord(tokens []token, idx int) int {
	for cursor := idx + 1; cursor < len(tokens); cursor++ {
		switch tokens[cursor].kind {
		case tokenSpace:
			continue
		case tokenWord:
			return cursor
		default:
			return -1
		}
	}

	return -1
}

// isMemberName returns true if the word token at idx follows a `.` and so names a field rather than a keyword.
func isMemberName(tokens []token, idx int) bool {
	for cursor := idx - 1; cursor >= 0; cursor-- {
		switch tokens[cursor].kind {
		case tokenSpace:
			continue
		case tokenOther:
			return tokens[cursor].text == "."
		default:
			return false
		}
	}

	return false
}

// Normalize rewrites the SQL flavored comparison syntax emitted by query planners into Starlark expression syntax:
// `=` and `<>` become `==` and `!=`, keywords are lowered, TRUE/FALSE/NULL map to True/False/None and
// `IS [NOT] NULL` maps to `== None` or `!= None`. String literals and member names after `.` are copied verbatim.
func Normalize(expression string) (string, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return "", err
	}

	var builder strings.Builder

	for idx := 0; idx < len(tokens); idx++ {
		next := tokens[idx]

		switch next.kind {
		case tokenOperator:
			switch next.text {
			case "=":
				builder.WriteString("==")
			case "<>":
				builder.WriteString("!=")
			default:
				builder.WriteString(next.text)
			}

		case tokenWord:
			if isMemberName(tokens, idx) {
				builder.WriteString(next.text)
				continue
			}

			lowered := strings.ToLower(next.text)

			if lowered == "is" {
				operand := nextWord(tokens, idx)

				if operand >= 0 && strings.EqualFold(tokens[operand].text, "null") {
					builder.WriteString("== None")
					idx = operand
					continue
				}

				if operand >= 0 && strings.EqualFold(tokens[operand].text, "not") {
					if nullOperand := nextWord(tokens, operand); nullOperand >= 0 && strings.EqualFold(tokens[nullOperand].text, "null") {
						builder.WriteString("!= None")
						idx = nullOperand
						continue
					}
				}

				return "", fmt.Errorf("unsupported use of IS in %q", expression)
			}

			if rewrite, isKeyword := keywordRewrites[lowered]; isKeyword {
				builder.WriteString(rewrite)
			} else {
				builder.WriteString(next.text)
			}

		default:
			builder.WriteString(next.text)
		}
	}

	return strings.TrimSpace(builder.String()), nil
}
