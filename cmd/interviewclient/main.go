// interviewclient drives one interview turn against a running service:
// it starts a session, uploads an audio file, and prints the generated
// follow-up question.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

func main() {
	serverAddr := flag.String("server", "http://localhost:8080", "Service base URL")
	audioFile := flag.String("audio", "../../testdata/sample-response.webm", "Path to audio recording")
	userID := flag.String("user", "test-user-"+time.Now().Format("150405"), "User ID")
	userName := flag.String("name", "Test Candidate", "Candidate name")
	position := flag.String("position", "Backend Engineer", "Position applied for")
	company := flag.String("company", "Acme", "Company name")
	experience := flag.String("experience", "mid", "Experience level (entry, mid, senior, lead)")
	turns := flag.Int("turns", 1, "Number of audio turns to submit")
	flag.Parse()

	client := &http.Client{Timeout: 120 * time.Second}

	// Start a session
	startBody, _ := json.Marshal(map[string]string{
		"user_id":    *userID,
		"user_name":  *userName,
		"position":   *position,
		"company":    *company,
		"experience": *experience,
	})
	resp, err := client.Post(*serverAddr+"/api/voice-interview/start", "application/json", bytes.NewReader(startBody))
	if err != nil {
		log.Fatalf("Failed to start interview: %v", err)
	}
	var started struct {
		Session struct {
			ID    string `json:"id"`
			Stage string `json:"stage"`
		} `json:"session"`
		FirstQuestion string `json:"first_question"`
	}
	if err := decodeResponse(resp, &started); err != nil {
		log.Fatalf("Failed to decode start response: %v", err)
	}
	log.Printf("Session started: id=%s stage=%s", started.Session.ID, started.Session.Stage)
	log.Printf("First question: %s", started.FirstQuestion)

	audio, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}
	log.Printf("Loaded audio: %s (%d bytes)", *audioFile, len(audio))

	for turn := 1; turn <= *turns; turn++ {
		result, err := submitAudio(client, *serverAddr, started.Session.ID, audio)
		if err != nil {
			log.Fatalf("Turn %d failed: %v", turn, err)
		}
		log.Printf("Turn %d: stage=%s progress=%.1f%%", turn, result.Stage, result.Progress)
		log.Printf("  Transcript: %s", result.Transcript)
		log.Printf("  Next question: %s", result.NextQuestion)
	}

	log.Printf("Done: %d turn(s) submitted for session %s", *turns, started.Session.ID)
}

type turnResult struct {
	Transcript   string  `json:"transcript"`
	NextQuestion string  `json:"next_question"`
	Stage        string  `json:"stage"`
	Progress     float64 `json:"progress"`
}

func submitAudio(client *http.Client, serverAddr, sessionID string, audio []byte) (*turnResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("session_id", sessionID); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("audio", "recording.webm")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	resp, err := client.Post(serverAddr+"/api/voice-interview/process-audio", w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	var result turnResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
