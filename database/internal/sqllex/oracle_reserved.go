package sqllex

import "strings"

// oracleReserved holds the words Oracle refuses as unquoted identifiers, taken
// from the reserved words appendix of the Oracle SQL Language Reference.
var oracleReserved = wordSet(`
	ACCESS ADD ALL ALTER AND ANY AS ASC BEGIN BETWEEN BY CASE CHECK COLUMN
	COMMENT CONNECT CREATE CURRENT DELETE DESC DISTINCT DROP ELSE EXCLUDE EXISTS
	FOR FROM GRANT GROUP HAVING IN INDEX INSERT INTERSECT INTO IS LEVEL LIKE
	LOCK MINUS MODE NOCOMPRESS NOT NULL NUMBER OF ON OPTION OR ORDER ROW ROWNUM
	SELECT SET SHARE SIZE START TABLE THEN TO TRIGGER UNION UNIQUE UPDATE VALUES
	VIEW WHEN WHERE WITH
`)

func wordSet(words string) map[string]struct{} {
	fields := strings.Fields(words)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

// IsOracleReservedWord reports whether word, compared case-insensitively, is
// reserved in Oracle. A double-quoted word is never reserved.
//
//	IsOracleReservedWord("level")    // true
//	IsOracleReservedWord(`"LEVEL"`)  // false
func IsOracleReservedWord(word string) bool {
	if len(word) >= 2 && word[0] == quoteDouble && word[len(word)-1] == quoteDouble {
		return false
	}
	_, ok := oracleReserved[strings.ToUpper(word)]
	return ok
}
