package webcast

import "strings"

// PreferredPictureFormat picks a single profile picture from the candidate URL
// variants the platform delivers. Preference order: the 100x100 webp, then the
// 100x100 jpeg, then anything that is not a "shrink" variant, then whatever
// comes first. Returns false when there is nothing to pick from.
func PreferredPictureFormat(urls []string) (string, bool) {
	if len(urls) == 0 {
		return "", false
	}
	for _, u := range urls {
		if strings.Contains(u, "100x100") && strings.Contains(u, ".webp") {
			return u, true
		}
	}
	for _, u := range urls {
		if strings.Contains(u, "100x100") && strings.Contains(u, ".jpeg") {
			return u, true
		}
	}
	for _, u := range urls {
		if !strings.Contains(u, "shrink") {
			return u, true
		}
	}
	return urls[0], true
}
