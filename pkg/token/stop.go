package token

var stopWords = map[string][]string{
	LangEnglish: {
		"a", "about", "after", "all", "also", "am", "an", "and", "any", "are", "as", "at",
		"be", "because", "been", "before", "being", "but", "by",
		"can", "could", "did", "do", "does", "doing", "down", "during",
		"each", "few", "for", "from", "further",
		"had", "has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
		"if", "in", "into", "is", "it", "its", "itself",
		"just", "me", "more", "most", "my", "no", "nor", "not", "now",
		"of", "off", "on", "once", "only", "or", "other", "our", "out", "over", "own",
		"same", "she", "should", "so", "some", "such",
		"than", "that", "the", "their", "them", "then", "there", "these", "they", "this",
		"those", "through", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which", "while", "who",
		"whom", "why", "will", "with", "would", "you", "your",
	},
	LangChinese: {
		"的", "了", "和", "是", "在", "我", "有", "就", "不", "人", "都", "一", "也", "很",
		"到", "说", "要", "去", "你", "会", "着", "没", "看", "好", "这", "那", "他", "她",
	},
}
