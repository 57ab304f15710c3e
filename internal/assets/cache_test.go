/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCachePutGetAndEvict(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := OpenCache(ctx, t.TempDir(), 100)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		e := Entry{URL: fmt.Sprintf("https://x/%d", i), MIME: "image/png", Width: i + 1, Height: 1, Data: make([]byte, 40)}
		if err := c.Put(ctx, e); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	total, err := c.TotalBytes(ctx)
	if err != nil || total > 100 {
		t.Fatalf("total = %d, %v", total, err)
	}
	if _, ok, _ := c.Get(ctx, "https://x/0"); ok {
		t.Fatalf("oldest entry must be evicted")
	}
	e, ok, err := c.Get(ctx, "https://x/2")
	if err != nil || !ok || e.Width != 3 || len(e.Data) != 40 {
		t.Fatalf("newest entry = %+v %v %v", e, ok, err)
	}

	// Touching 1 makes 2 the least recently used.
	time.Sleep(2 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "https://x/1"); !ok {
		t.Fatalf("entry 1 missing")
	}
	time.Sleep(2 * time.Millisecond)
	if err := c.Put(ctx, Entry{URL: "https://x/3", MIME: "image/png", Data: make([]byte, 40)}); err != nil {
		t.Fatalf("put 3: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "https://x/2"); ok {
		t.Fatalf("least recently used entry must go first")
	}
	if n, _ := c.Len(ctx); n != 2 {
		t.Fatalf("len = %d", n)
	}
}

func TestCacheRequiresDir(t *testing.T) {
	if _, err := OpenCache(context.Background(), " ", 0); err == nil {
		t.Fatalf("empty dir must fail")
	}
}
