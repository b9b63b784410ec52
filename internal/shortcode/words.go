package shortcode

// Curated lists of short, pronounceable words used to build memorable codes.

var adjectives = []string{
	"blue", "red", "green", "bright", "dark", "light", "fast", "slow", "big", "small",
	"happy", "calm", "wild", "cool", "warm", "fresh", "smooth", "rough", "sharp", "soft",
	"quick", "lazy", "busy", "quiet", "loud", "deep", "high", "wide", "thin", "thick",
	"sweet", "sour", "hot", "cold", "new", "old", "young", "rich", "poor", "clean",
	"dirty", "empty", "full", "open", "closed", "free", "easy", "hard", "simple",
	"complex", "strong", "weak", "brave", "shy", "smart", "wise", "kind", "mean", "nice",
	"rude", "polite", "funny", "sad", "angry", "tired", "hungry", "thirsty", "sick", "healthy",
	"lucky", "unlucky", "safe", "risky", "cheap", "costly", "rare", "common", "special", "normal",
}

var nouns = []string{
	"cat", "dog", "bird", "fish", "tree", "flower", "house", "car", "book", "phone",
	"table", "chair", "door", "window", "bridge", "road", "river", "mountain", "ocean", "lake",
	"sun", "moon", "star", "cloud", "rain", "snow", "fire", "water", "earth", "wind",
	"apple", "banana", "orange", "grape", "bread", "cake", "coffee", "tea", "milk", "cheese",
	"music", "song", "dance", "movie", "game", "sport", "ball", "bike", "train", "plane",
	"key", "box", "bag", "hat", "shoe", "shirt", "dress", "watch", "ring", "gift",
	"paper", "pen", "pencil", "brush", "paint", "color", "photo", "camera", "mirror", "glass",
	"heart", "mind", "soul", "dream", "hope", "love", "peace", "joy", "smile", "laugh",
}

var verbs = []string{
	"run", "walk", "jump", "fly", "swim", "dance", "sing", "play", "work", "sleep",
	"eat", "drink", "read", "write", "draw", "paint", "build", "make", "create", "fix",
	"help", "teach", "learn", "think", "dream", "wish", "hope", "love", "like", "want",
	"give", "take", "buy", "sell", "find", "lose", "win", "fail", "start", "stop",
	"open", "close", "push", "pull", "lift", "drop", "throw", "catch", "hit", "miss",
}
