package feature

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultStopWords 默认停用词表。
var DefaultStopWords = []string{
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
}

// MinKeywordLen 关键词最小长度（不含），即只保留长度 > 2 的词。
const MinKeywordLen = 2

// Tokenize 把文本切分为关键词集合：
//   - 统一转小写，按字母连续段切词，词内允许 ' 和 -（不能出现在词首）
//   - 去掉停用词与长度 <= 2 的词
//   - 去重（集合语义，不统计词频），结果升序
func Tokenize(text string, stopWords map[string]struct{}) []string {
	if text == "" {
		return nil
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimLeft(w, "'-")
		if utf8.RuneCountInString(w) <= MinKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// StopWordSet 把停用词列表转为集合，统一小写。
func StopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
