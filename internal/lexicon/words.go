package lexicon

var defaultPositive = []string{
	"good", "great", "excellent", "amazing", "awesome", "love", "loved", "like",
	"liked", "happy", "satisfied", "best", "wonderful", "fantastic", "perfect",
	"helpful", "easy", "nice", "recommend", "pleased", "friendly", "efficient",
	"reliable", "smooth", "enjoy", "enjoyed", "impressive", "outstanding",
	"brilliant", "superb", "glad", "useful", "intuitive", "responsive", "thanks",
	"thank", "beautiful", "convenient", "clean", "positive", "valuable",
	"professional", "delighted", "exceptional", "favorite", "improved", "works",
}

var defaultNegative = []string{
	"bad", "terrible", "awful", "poor", "hate", "hated", "worst", "slow",
	"broken", "difficult", "disappointed", "disappointing", "useless",
	"horrible", "annoying", "frustrating", "frustrated", "confusing", "buggy",
	"bug", "bugs", "crash", "crashes", "crashed", "expensive", "rude", "unhappy",
	"angry", "problem", "problems", "issue", "issues", "fail", "failed",
	"failure", "error", "errors", "laggy", "unreliable", "complicated", "waste",
	"negative", "dislike", "missing", "unusable", "dirty", "late",
}

var defaultStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am",
	"an", "and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "down", "during", "each", "even", "few", "for",
	"from", "further", "get", "got", "had", "has", "have", "having", "he",
	"her", "here", "hers", "herself", "him", "himself", "his", "how", "i",
	"if", "in", "into", "is", "it", "its", "itself", "just", "me", "more",
	"most", "much", "my", "myself", "no", "nor", "not", "now", "of", "off",
	"on", "once", "only", "or", "other", "our", "ours", "ourselves", "out",
	"over", "own", "really", "same", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "we", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "would", "you",
	"your", "yours", "yourself", "yourselves", "still",
}
