package llamacpp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lieworks/lie/pkg/runtime"
)

// completionRequest is the llama.cpp /completion request body.
type completionRequest struct {
	Prompt      string  `json:"prompt"`
	NPredict    int     `json:"n_predict"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
	CachePrompt bool    `json:"cache_prompt"`
}

// completionChunk is one SSE data payload from a streaming /completion.
type completionChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

// Generate starts a streaming generation against the llama.cpp server.
// One generation runs at a time; additional callers wait on the slot or
// give up when their context is done.
func (l *LlamaCpp) Generate(ctx context.Context, req runtime.GenerateRequest) (<-chan runtime.TokenEvent, error) {
	if !l.loaded {
		return nil, fmt.Errorf("model not loaded")
	}

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := json.Marshal(completionRequest{
		Prompt:      req.Prompt,
		NPredict:    req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
		CachePrompt: true,
	})
	if err != nil {
		<-l.slot
		return nil, fmt.Errorf("marshalling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		<-l.slot
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		<-l.slot
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		<-l.slot
		return nil, fmt.Errorf("completion returned status %d", resp.StatusCode)
	}

	events := make(chan runtime.TokenEvent)
	go l.readStream(ctx, resp, events)
	return events, nil
}

// readStream scans SSE lines from the response body into token events.
// Cancelling ctx closes the body, which unblocks the scanner; the stream
// then terminates promptly, releasing the generation slot.
func (l *LlamaCpp) readStream(ctx context.Context, resp *http.Response, events chan<- runtime.TokenEvent) {
	defer func() {
		resp.Body.Close()
		close(events)
		<-l.slot
	}()

	// Body reads do not observe ctx on their own; force them to.
	stop := context.AfterFunc(ctx, func() {
		resp.Body.Close()
	})
	defer stop()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	index := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			l.emit(ctx, events, runtime.TokenEvent{Err: fmt.Errorf("parsing stream chunk: %w", err)})
			return
		}

		if chunk.Content != "" {
			index++
			if !l.emit(ctx, events, runtime.TokenEvent{Token: chunk.Content, Index: index}) {
				return
			}
		}
		if chunk.Stop {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		l.emit(ctx, events, runtime.TokenEvent{Err: fmt.Errorf("reading stream: %w", err)})
	}
}

// emit sends an event unless the consumer is gone. Returns false when the
// stream should stop.
func (l *LlamaCpp) emit(ctx context.Context, events chan<- runtime.TokenEvent, ev runtime.TokenEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
