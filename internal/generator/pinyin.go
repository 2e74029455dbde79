package generator

import (
	"strings"
	"unicode"
)

// pinyin romanises common surname and given-name characters.
var pinyin = map[rune]string{
	'张': "zhang", '王': "wang", '李': "li", '赵': "zhao", '刘': "liu",
	'陈': "chen", '杨': "yang", '黄': "huang", '周': "zhou", '吴': "wu",
	'徐': "xu", '孙': "sun", '马': "ma", '朱': "zhu", '胡': "hu",
	'林': "lin", '郭': "guo", '何': "he", '高': "gao", '罗': "luo",
	'明': "ming", '华': "hua", '强': "qiang", '军': "jun", '伟': "wei",
	'建': "jian", '国': "guo", '文': "wen", '德': "de", '成': "cheng",
}

// toPinyin romanises the Han characters of s that the table knows and
// keeps every other rune unchanged.
func toPinyin(s string) string {
	var b strings.Builder
	for _, r := range s {
		if p, ok := pinyin[r]; ok {
			b.WriteString(p)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hasHan reports whether s contains a Han character.
func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
