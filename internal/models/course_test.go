package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func TestVideoItem_RawMarshalsAsBareString(t *testing.T) {
	data, err := json.Marshal(RawItem("https://youtu.be/dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"https://youtu.be/dQw4w9WgXcQ"` {
		t.Errorf("raw item = %s, want a bare JSON string", data)
	}
}

func TestVideoItem_EnrichedMarshalsAsObject(t *testing.T) {
	item := EnrichedItem("https://youtu.be/dQw4w9WgXcQ", VideoMeta{
		Title:     "Never Gonna Give You Up",
		Duration:  "3m",
		ViewCount: "1.5M",
		LikeCount: "16.8K",
		Thumbnail: "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg",
	})

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("enriched item is not an object: %v", err)
	}
	for _, key := range []string{"url", "title", "duration", "viewCount", "likeCount", "thumbnail"} {
		if _, ok := obj[key]; !ok {
			t.Errorf("enriched item missing key %q", key)
		}
	}
}

func TestVideoItem_DecodesLegacyStringList(t *testing.T) {
	var items []VideoItem
	if err := json.Unmarshal([]byte(`["https://a.example/v1","https://a.example/v2"]`), &items); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("decoded %d items, want 2", len(items))
	}
	for i, item := range items {
		if !item.IsRaw() {
			t.Errorf("item %d decoded as enriched", i)
		}
	}
	if items[0].URL != "https://a.example/v1" {
		t.Errorf("item 0 url = %s", items[0].URL)
	}
}

func TestVideoItem_MixedListRoundTrip(t *testing.T) {
	list := []VideoItem{
		RawItem("https://a.example/raw1"),
		EnrichedItem("https://youtu.be/abc12345678", VideoMeta{
			Title: "Lesson 1", Duration: "1h 4m", ViewCount: "12.3K", LikeCount: "901", Thumbnail: "https://t.example/1.jpg",
		}),
		RawItem("https://a.example/raw2"),
	}

	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded []VideoItem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(list, decoded) {
		t.Errorf("round trip changed the list:\n got %+v\nwant %+v", decoded, list)
	}
}

func TestVideoItem_RejectsOtherShapes(t *testing.T) {
	var item VideoItem
	if err := json.Unmarshal([]byte(`42`), &item); err == nil {
		t.Error("Unmarshal() accepted a number as a video item")
	}
}

func TestProperty_VideoItem_RoundTripPreservesVariants(t *testing.T) {
	urlGen := rapid.StringMatching(`https://[a-z]{3,10}\.example/[a-zA-Z0-9]{1,20}`)
	textGen := rapid.StringMatching(`[a-zA-Z0-9 ]{0,40}`)

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		list := make([]VideoItem, n)
		for i := range list {
			if rapid.Bool().Draw(rt, "enriched") {
				list[i] = EnrichedItem(urlGen.Draw(rt, "url"), VideoMeta{
					Title:     textGen.Draw(rt, "title"),
					Duration:  textGen.Draw(rt, "duration"),
					ViewCount: textGen.Draw(rt, "views"),
					LikeCount: textGen.Draw(rt, "likes"),
					Thumbnail: urlGen.Draw(rt, "thumb"),
				})
			} else {
				list[i] = RawItem(urlGen.Draw(rt, "rawURL"))
			}
		}

		data, err := json.Marshal(list)
		if err != nil {
			rt.Fatalf("Marshal() error = %v", err)
		}
		var decoded []VideoItem
		if err := json.Unmarshal(data, &decoded); err != nil {
			rt.Fatalf("Unmarshal() error = %v", err)
		}
		if len(decoded) != len(list) {
			rt.Fatalf("round trip changed length: %d -> %d", len(list), len(decoded))
		}
		for i := range list {
			if list[i].IsRaw() != decoded[i].IsRaw() {
				rt.Fatalf("item %d changed variant", i)
			}
			if !reflect.DeepEqual(list[i], decoded[i]) {
				rt.Fatalf("item %d changed: got %+v, want %+v", i, decoded[i], list[i])
			}
		}
	})
}
