// Package webcast normalizes the nested, loosely-typed event records of a
// live-streaming wire protocol into flat records with stable field names.
// Every transformation is pure: input payloads are never mutated and the
// same input always yields the same output.
package webcast

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/you/flatcast/internal/core"
)

// Normalize flattens one raw event payload. Generic steps run first (user
// attribute extraction, common/displayText merging, identifier
// stringification), then the reshaper registered for eventType, if any.
// Unregistered event types pass through the generic steps unchanged.
//
// Running Normalize over an already-flat record is a no-op: every nested
// source field is consumed when present and left alone when not.
func Normalize(eventType core.EventType, raw map[string]any) core.Record {
	out := make(core.Record, len(raw)+8)
	for k, v := range raw {
		out[k] = v
	}

	if user := asMap(out["user"]); user != nil {
		for k, v := range UserAttributes(user) {
			out[k] = v
		}
		delete(out, "user")
	}

	if common := asMap(out["common"]); common != nil {
		if display := asMap(common["displayText"]); display != nil {
			for k, v := range display {
				out[k] = v
			}
		}
		for k, v := range common {
			if k == "displayText" {
				continue
			}
			out[k] = v
		}
		delete(out, "common")
	}

	// Long-encoded identifiers always leave here as decimal strings.
	for _, key := range []string{"msgId", "createTime"} {
		if v, ok := out[key]; ok {
			if s, ok := asString(v); ok {
				out[key] = s
			}
		}
	}

	if reshape, ok := reshapers[eventType]; ok {
		reshape(out)
	}
	return out
}

var reshapers = map[core.EventType]func(core.Record){
	core.EventQuestionNew:   reshapeQuestionNew,
	core.EventRoomUserSeq:   reshapeRoomUserSeq,
	core.EventLinkMicBattle: reshapeLinkMicBattle,
	core.EventGift:          reshapeGift,
	core.EventChat:          reshapeChat,
	core.EventEmoteChat:     reshapeEmoteChat,
}

func reshapeQuestionNew(out core.Record) {
	if details := asMap(out["details"]); details != nil {
		for k, v := range details {
			out[k] = v
		}
		delete(out, "details")
	}
}

func reshapeRoomUserSeq(out core.Record) {
	ranks := asList(out["ranksList"])
	if ranks == nil {
		return
	}
	viewers := make([]map[string]any, 0, len(ranks))
	for _, r := range ranks {
		entry := asMap(r)
		viewer := map[string]any{"user": nil, "coinCount": 0}
		if user := asMap(entry["user"]); user != nil {
			viewer["user"] = UserAttributes(user)
		}
		if n, ok := asInt(entry["coinCount"]); ok {
			viewer["coinCount"] = n
		}
		viewers = append(viewers, viewer)
	}
	out["topViewers"] = viewers
	delete(out, "ranksList")
}

func reshapeLinkMicBattle(out core.Record) {
	battleUsers := make([]map[string]any, 0)
	add := func(entry any) {
		anchor := asMap(entry)
		if user := asMap(anchor["user"]); user != nil {
			battleUsers = append(battleUsers, UserAttributes(user))
		}
	}
	switch anchors := out["anchorInfo"].(type) {
	case []any:
		for _, entry := range anchors {
			add(entry)
		}
	case map[string]any:
		// decoded map order is unspecified; sort keys for stable output
		keys := make([]string, 0, len(anchors))
		for k := range anchors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(anchors[k])
		}
	default:
		return
	}
	out["battleUsers"] = battleUsers
}

func reshapeGift(out core.Record) {
	out["repeatEnd"] = truthy(out["repeatEnd"])

	details := asMap(out["giftDetails"])

	// Legacy nested shape still expected by older downstream consumers.
	gift := map[string]any{"repeat_end": 0}
	if out["repeatEnd"] == true {
		gift["repeat_end"] = 1
	}
	if v, ok := out["giftId"]; ok {
		gift["gift_id"] = v
	}
	if v, ok := out["repeatCount"]; ok {
		gift["repeat_count"] = v
	}
	if details != nil {
		if gt, ok := details["giftType"]; ok {
			gift["gift_type"] = gt
		}
	} else if gt, ok := out["giftType"]; ok {
		// giftDetails already merged up on a previous pass
		gift["gift_type"] = gt
	}
	out["gift"] = gift

	if details != nil {
		for k, v := range details {
			out[k] = v
		}
		delete(out, "giftDetails")
	}
	if image := asMap(out["giftImage"]); image != nil {
		for k, v := range image {
			out[k] = v
		}
		delete(out, "giftImage")
	}

	if extra := asMap(out["giftExtra"]); extra != nil {
		for k, v := range extra {
			switch k {
			case "toUserId":
				if truthy(v) {
					out["receiverUserId"] = v
				} else {
					out[k] = v
				}
			case "sendGiftSendMessageSuccessMs":
				if n, ok := asInt64(v); ok && truthy(v) {
					out["timestamp"] = n
				} else {
					out[k] = v
				}
			default:
				out[k] = v
			}
		}
		delete(out, "giftExtra")
	}

	if s, ok := out["monitorExtra"].(string); ok && strings.HasPrefix(s, "{") {
		out["monitorExtra"] = parseOrKeep(s)
	}
}

func reshapeChat(out core.Record) {
	emotes := asList(out["emotes"])
	if emotes == nil {
		return
	}
	flattened := make([]any, 0, len(emotes))
	for _, e := range emotes {
		entry := asMap(e)
		nested := asMap(entry["emote"])
		if nested == nil {
			// entry is already in flat form
			flattened = append(flattened, e)
			continue
		}
		flat := make(map[string]any, 3)
		if id, ok := asString(nested["emoteId"]); ok {
			flat["emoteId"] = id
		}
		if image := asMap(nested["image"]); image != nil {
			if u, ok := asString(image["imageUrl"]); ok {
				flat["emoteImageUrl"] = u
			}
		}
		if place, ok := entry["placeInComment"]; ok {
			flat["placeInComment"] = place
		}
		flattened = append(flattened, flat)
	}
	out["emotes"] = flattened
}

func reshapeEmoteChat(out core.Record) {
	list := asList(out["emoteList"])
	if list == nil {
		return
	}
	emotes := make([]any, 0, len(list))
	for _, e := range list {
		entry := asMap(e)
		if entry == nil {
			continue
		}
		flat := make(map[string]any, 2)
		if id, ok := asString(entry["emoteId"]); ok {
			flat["emoteId"] = id
		}
		if image := asMap(entry["image"]); image != nil {
			if urls := stringList(image["url"]); len(urls) > 0 {
				flat["emoteImageUrl"] = urls[0]
			}
		}
		emotes = append(emotes, flat)
	}
	out["emotes"] = emotes
	delete(out, "emoteList")
}

// parseOrKeep decodes an embedded JSON document, handing back the raw string
// untouched when it does not parse. The failure is deliberately swallowed.
func parseOrKeep(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	return v
}
