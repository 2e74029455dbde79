package generator

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// commonPasswords is the built-in dictionary, most frequent first.
// Duplicates are harmless: the iterator drops repeated candidates.
var commonPasswords = []string{
	// very short
	"00", "11", "22", "33", "44", "55", "66", "77", "88", "99",
	"01", "10", "12", "21", "23", "32", "34", "43", "56", "65", "69", "96",

	// top of every leak
	"password", "password123", "password1", "123456", "a123456", "admin123",
	"12345678", "qwerty", "123456789", "abc123", "111111", "1234567890",
	"admin", "root", "test", "123123", "iloveyou", "welcome", "monkey",
	"dragon", "master", "letmein", "login", "princess", "qwerty123",
	"solo", "passw0rd", "starwars", "aa123456", "password12", "password!",

	// simple
	"12345", "1234", "1234567", "654321", "123321", "666666", "888888",
	"000000", "121212", "123qwe", "qazwsx", "1qaz2wsx", "zxcvbnm",
	"asdfgh", "qwertyuiop", "1q2w3e4r", "q1w2e3r4", "asdf1234", "zxcv1234",

	// letters and digits
	"a12345", "a1234", "a123", "abc1234", "abcd1234", "abc12345",
	"test123", "user123", "pass123", "root123", "guest123", "hello123",
	"aaa111", "aaa123", "aaaa1111", "abcdef", "abcdefg", "abcdefgh",

	// pinyin
	"woaini", "woaini520", "5201314", "520520", "aini", "nihao", "wozuishuai",
	"woaini1314", "aini520", "mima", "mima123", "wode", "wodema",
	"daniu", "niubi", "wocao",

	// keyboard
	"qweasd", "qwer1234", "qwertyui", "asdfghjk", "1q2w3e", "qweasdzxc",
	"1234qwer", "qwer", "asdf", "zxcv", "147258369", "159357", "147852369", "741852963",

	// digits
	"123", "0000", "00000", "0000000", "00000000",
	"1111", "11111", "1111111", "11111111", "2222", "22222", "222222",
	"3333", "33333", "333333", "4444", "44444", "444444", "5555", "55555", "555555",
	"6666", "66666", "6666666", "66666666", "7777", "77777", "777777",
	"8888", "88888", "8888888", "88888888", "9999", "99999", "999999",
	"12321", "1221", "112233", "11223344", "1122", "2233", "3344",

	// words
	"guest", "user", "hello", "secret", "pass", "pwd", "passwd", "administrator",
	"manager", "system", "server", "default", "changeme", "temp", "demo", "sample",

	// names and hobbies
	"mustang", "michael", "superman", "7777777", "killer", "trustno1",
	"jordan", "jennifer", "hunter", "buster", "soccer", "harley", "batman",
	"andrew", "tigger", "sunshine", "2000", "charlie", "robert", "thomas",
	"hockey", "ranger", "daniel", "klaster", "george", "computer", "michelle",
	"jessica", "pepper", "zxcvbn", "555555", "131313", "freedom",
	"maggie", "159753", "aaaaaa", "ginger", "joshua", "cheese",
	"amanda", "summer", "love", "ashley", "6969", "nicole", "chelsea",
	"biteme", "matthew", "access", "yankees", "987654321", "dallas", "austin",
	"thunder", "taylor", "matrix", "baseball", "football",

	// years
	"1970", "1980", "1985", "1990", "1991", "1992", "1993", "1994", "1995",
	"1996", "1997", "1998", "1999", "2001", "2002", "2003", "2004",
	"2005", "2006", "2007", "2008", "2009", "2010", "2011", "2012", "2013",
	"2014", "2015", "2016", "2017", "2018", "2019", "2020", "2021", "2022",
	"2023", "2024", "2025", "2026",

	// affection
	"baby", "angel", "honey", "sweety", "iloveu", "loveyou", "mylove",
	"babe", "darling", "sweetie", "lover", "beloved", "heart", "kiss", "hugs",

	// first names
	"sarah", "david", "james", "john", "william", "richard", "joseph",
	"charles", "anthony", "mark", "donald", "steven",
}

// CommonPasswords returns a copy of the built-in dictionary.
func CommonPasswords() []string {
	return append([]string(nil), commonPasswords...)
}

// LoadWordList reads one word per line from path. Blank lines and lines
// starting with '#' are skipped; surrounding whitespace is trimmed.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user's own configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	words := make([]string, 0, 1024)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}

	return words, nil
}
