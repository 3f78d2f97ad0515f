// Command devfeed emits sample webcast envelopes for local testing. Pipe its
// output into flatcast, or point -out at a spool file to exercise the watcher.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/you/flatcast/internal/core"
)

func sampleUser(id, unique, nick string) map[string]any {
	return map[string]any{
		"userId":   id,
		"secUid":   "sec-" + id,
		"uniqueId": unique,
		"nickname": nick,
		"profilePicture": map[string]any{
			"url": []any{
				fmt.Sprintf("https://p16.example.com/100x100/%s.webp", unique),
				fmt.Sprintf("https://p16.example.com/100x100/%s.jpeg", unique),
			},
		},
		"badges": []any{
			map[string]any{
				"badgeSceneType": 8,
				"privilegeLogExtra": map[string]any{
					"level":       "3",
					"privilegeId": "7196929090442513157",
				},
			},
			map[string]any{
				"badgeSceneType": 10,
				"imageBadges": []any{
					map[string]any{
						"image":       map[string]any{"url": "https://p16.example.com/badge/fans_lv1.png"},
						"displayType": 1,
					},
				},
			},
		},
		"followInfo": map[string]any{
			"followingCount": 12,
			"followerCount":  340,
			"followStatus":   1,
			"pushStatus":     0,
		},
	}
}

func samples() []core.Envelope {
	return []core.Envelope{
		{
			Event: string(core.EventChat),
			Data: map[string]any{
				"msgId":      1001,
				"createTime": time.Now().UnixMilli(),
				"comment":    "hello from devfeed",
				"user":       sampleUser("7000000001", "alice", "Alice"),
				"emotes": []any{
					map[string]any{
						"emote": map[string]any{
							"emoteId": "e1",
							"image":   map[string]any{"imageUrl": "https://p16.example.com/emote/e1.png"},
						},
						"placeInComment": 0,
					},
				},
			},
		},
		{
			Event: string(core.EventEmoteChat),
			Data: map[string]any{
				"msgId":      1002,
				"createTime": time.Now().UnixMilli(),
				"user":       sampleUser("7000000002", "bob", "Bob"),
				"emoteList": []any{
					map[string]any{
						"emoteId": "e2",
						"image":   map[string]any{"url": []any{"https://p16.example.com/emote/e2.png"}},
					},
				},
			},
		},
		{
			Event: string(core.EventGift),
			Data: map[string]any{
				"msgId":       1003,
				"createTime":  time.Now().UnixMilli(),
				"giftId":      5655,
				"repeatCount": 3,
				"repeatEnd":   1,
				"user":        sampleUser("7000000003", "carol", "Carol"),
				"giftDetails": map[string]any{
					"giftName":     "Rose",
					"giftType":     1,
					"diamondCount": 1,
					"giftImage":    map[string]any{"giftPictureUrl": "https://p16.example.com/gift/rose.png"},
				},
				"giftExtra": map[string]any{
					"toUserId":                     "7000000099",
					"sendGiftSendMessageSuccessMs": time.Now().UnixMilli(),
				},
			},
		},
		{
			Event: string(core.EventQuestionNew),
			Data: map[string]any{
				"msgId":      1004,
				"createTime": time.Now().UnixMilli(),
				"user":       sampleUser("7000000004", "dave", "Dave"),
				"details": map[string]any{
					"questionText": "what overlay is that?",
				},
			},
		},
		{
			Event: string(core.EventRoomUserSeq),
			Data: map[string]any{
				"msgId":       1005,
				"createTime":  time.Now().UnixMilli(),
				"viewerCount": 1523,
				"ranksList": []any{
					map[string]any{
						"user":      sampleUser("7000000005", "eve", "Eve"),
						"coinCount": 990,
					},
				},
			},
		},
		{
			Event: string(core.EventLinkMicBattle),
			Data: map[string]any{
				"msgId":      1006,
				"createTime": time.Now().UnixMilli(),
				"anchorInfo": map[string]any{
					"7000000006": map[string]any{
						"user": sampleUser("7000000006", "hostA", "Host A"),
					},
					"7000000007": map[string]any{
						"user": sampleUser("7000000007", "hostB", "Host B"),
					},
				},
			},
		},
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		outPath string
		repeat  int
		delayMS int
	)

	flag.StringVar(&outPath, "out", "", "Output path (default stdout); use a .ndjson file in a spool dir to feed the watcher")
	flag.IntVar(&repeat, "repeat", 1, "Number of times to emit the sample set")
	flag.IntVar(&delayMS, "delay-ms", 0, "Delay between envelopes in milliseconds")
	flag.Parse()

	out := os.Stdout
	if outPath != "" && outPath != "-" {
		f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("devfeed: open %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	emitted := 0
	for i := 0; i < repeat; i++ {
		for _, env := range samples() {
			if err := enc.Encode(env); err != nil {
				log.Fatalf("devfeed: encode: %v", err)
			}
			emitted++
			if delayMS > 0 {
				time.Sleep(time.Duration(delayMS) * time.Millisecond)
			}
		}
	}
	log.Printf("devfeed: emitted %d envelopes", emitted)
}
