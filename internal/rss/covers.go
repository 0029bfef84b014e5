package rss

import (
	"hash/fnv"
	"strings"
)

func unsplash(id string) string {
	return "https://images.unsplash.com/photo-" + id + "?auto=format&fit=crop&w=800&q=80"
}

// topics are checked in order; the first whose keywords appear wins.
var topics = []struct {
	name     string
	keywords []string
}{
	{"ransomware", []string{"ransomware"}},
	{"phishing", []string{"phishing"}},
	{"malware", []string{"malware"}},
	{"encryption", []string{"encryption"}},
	{"firewall", []string{"firewall"}},
	{"zeroday", []string{"zero-day"}},
	{"socialengineering", []string{"social engineering"}},
	{"vpn", []string{"vpn"}},
	{"wifi", []string{"wi-fi"}},
	{"scam", []string{"scam"}},
	{"hacker", []string{"hacker", "breach", "attack", "cyber"}},
	{"password", []string{"password", "credential"}},
	{"data", []string{"data"}},
}

var pools = map[string][]string{
	"ransomware": {
		unsplash("1510511459019-5dda7724fd87"),
		unsplash("1503676382389-4809596d5290"),
		unsplash("1508780709619-79562169bc64"),
		unsplash("1465101046530-73398c7f28ca"),
	},
	"phishing": {
		unsplash("1506744038136-46273834b3fb"),
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1519125323398-675f0ddb6308"),
		unsplash("1519389950473-47ba0277781c"),
	},
	"malware": {
		unsplash("1463438690606-f6778b8c1d10"),
		unsplash("1519389950473-47ba0277781c"),
		unsplash("1508780709619-79562169bc64"),
	},
	"encryption": {
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1510511459019-5dda7724fd87"),
		unsplash("1519389950473-47ba0277781c"),
	},
	"firewall": {
		unsplash("1519125323398-675f0ddb6308"),
		unsplash("1463438690606-f6778b8c1d10"),
		unsplash("1508780709619-79562169bc64"),
	},
	"zeroday": {
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1519389950473-47ba0277781c"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"socialengineering": {
		unsplash("1518717758536-85ae29035b6d"),
		unsplash("1508780709619-79562169bc64"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"vpn": {
		unsplash("1519125323398-675f0ddb6308"),
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"wifi": {
		unsplash("1463438690606-f6778b8c1d10"),
		unsplash("1510511459019-5dda7724fd87"),
		unsplash("1519389950473-47ba0277781c"),
	},
	"scam": {
		unsplash("1506744038136-46273834b3fb"),
		unsplash("1519389950473-47ba0277781c"),
		unsplash("1508780709619-79562169bc64"),
	},
	"hacker": {
		unsplash("1519389950473-47ba0277781c"),
		unsplash("1508780709619-79562169bc64"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"password": {
		unsplash("1503676382389-4809596d5290"),
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"data": {
		unsplash("1465101046530-73398c7f28ca"),
		unsplash("1508780709619-79562169bc64"),
		unsplash("1510511459019-5dda7724fd87"),
	},
	"generic": {
		"https://cdn.pixabay.com/photo/2017/01/10/19/05/abstract-1975041_1280.jpg",
		unsplash("1519389950473-47ba0277781c"),
		unsplash("1508780709619-79562169bc64"),
		unsplash("1510511459019-5dda7724fd87"),
	},
}

// Categorize returns the topic of a post's text, or "generic".
func Categorize(text string) string {
	text = strings.ToLower(text)
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(text, kw) {
				return t.name
			}
		}
	}
	return "generic"
}

// AssignCovers gives every post without a cover image a stock image from
// its category's pool. Images are not reused while the pool has unused
// ones; once exhausted the choice is derived from the post id.
func AssignCovers(posts []Post) {
	used := make(map[string]bool)
	for i := range posts {
		if posts[i].CoverImage != "" {
			used[posts[i].CoverImage] = true
		}
	}
	for i := range posts {
		if posts[i].CoverImage != "" {
			continue
		}
		pool, ok := pools[posts[i].Category]
		if !ok {
			pool = pools["generic"]
		}
		img := ""
		for _, candidate := range pool {
			if !used[candidate] {
				img = candidate
				break
			}
		}
		if img == "" {
			h := fnv.New32a()
			h.Write([]byte(posts[i].ID))
			img = pool[int(h.Sum32()%uint32(len(pool)))]
		}
		used[img] = true
		posts[i].CoverImage = img
	}
}
