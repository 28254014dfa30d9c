package filter

// TitleSimilarity 计算两个标题的字符级相似度比例（similar_text 算法）：
// 递归地找最长公共子串，累加两侧剩余部分的匹配字符数，结果为 2*matched / (len(a)+len(b))。
// 返回值在 [0,1]；两个空串返回 0。调用方负责大小写归一。
func TitleSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return 2 * float64(similarChars(ra, rb)) / float64(total)
}

func similarChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	posA, posB, n := longestCommonSubstring(a, b)
	if n == 0 {
		return 0
	}
	return n +
		similarChars(a[:posA], b[:posB]) +
		similarChars(a[posA+n:], b[posB+n:])
}

// longestCommonSubstring 返回第一个最长公共子串在 a、b 中的起点与长度。
func longestCommonSubstring(a, b []rune) (posA, posB, length int) {
	for i := range a {
		for j := range b {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > length {
				posA, posB, length = i, j, k
			}
		}
	}
	return posA, posB, length
}
