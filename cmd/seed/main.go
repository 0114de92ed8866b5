package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultServerAddress = "http://localhost:8080"

// starterItems is a small set of liquid CS:GO listings worth tracking out
// of the box. The numeric id is the listing's item_nameid on the community
// market.
var starterItems = []struct {
	Name         string `json:"name"`
	MarketNameID string `json:"market_name_id"`
}{
	{Name: "AK-47 | Redline (Field-Tested)", MarketNameID: "176321160"},
	{Name: "AWP | Asiimov (Field-Tested)", MarketNameID: "176203336"},
	{Name: "Operation Phoenix Weapon Case", MarketNameID: "175999886"},
	{Name: "Chroma 2 Case", MarketNameID: "176185724"},
	{Name: "Glock-18 | Water Elemental (Minimal Wear)", MarketNameID: "176266265"},
}

// init configures the logger for the seeder with pretty printing
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// seedClient handles HTTP communication with the worker API
type seedClient struct {
	baseURL string
	client  *http.Client
}

func newSeedClient() *seedClient {
	baseURL := os.Getenv("SERVER_ADDRESS")
	if baseURL == "" {
		baseURL = defaultServerAddress
	}
	return &seedClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// addItem registers one tracked item with the API
func (sc *seedClient) addItem(name, marketNameID string) error {
	body, err := json.Marshal(map[string]string{
		"name":           name,
		"market_name_id": marketNameID,
	})
	if err != nil {
		return err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/items", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("add item failed with status: %d", resp.StatusCode)
	}
	return nil
}

// triggerCollection starts an on-demand collection run
func (sc *seedClient) triggerCollection() (string, error) {
	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/collect", sc.baseURL),
		"application/json",
		nil,
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("trigger failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Data.RunID, nil
}

// main registers the starter items against a running worker and kicks off
// one collection run.
func main() {
	sc := newSeedClient()

	for _, item := range starterItems {
		if err := sc.addItem(item.Name, item.MarketNameID); err != nil {
			log.Error().Err(err).Str("item", item.Name).Msg("failed to register item")
			continue
		}
		log.Info().Str("item", item.Name).Msg("registered item")
	}

	runID, err := sc.triggerCollection()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to trigger collection")
	}
	log.Info().Str("run_id", runID).Msg("collection run started")
}
