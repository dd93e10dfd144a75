// loadgen seeds a product and fires concurrent single-item orders against
// a running server, then reports how many succeeded against the initial
// stock. Useful for eyeballing the no-overdraw guarantee under load.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		baseURL  = flag.String("addr", "http://localhost:8080", "server base URL")
		stock    = flag.Int("stock", 20, "initial stock of the seeded product")
		requests = flag.Int("requests", 50, "number of concurrent order requests")
		price    = flag.Int64("price", 500, "unit price of the seeded product in cents")
	)
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	productID, err := seedProduct(client, *baseURL, *price, *stock)
	if err != nil {
		log.Fatalf("seed product: %v", err)
	}
	log.Printf("seeded product %d with stock %d", productID, *stock)

	var succeeded, rejected, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := placeOrder(client, *baseURL, productID, 1)
			switch {
			case err != nil:
				failed.Add(1)
			case status == http.StatusCreated:
				succeeded.Add(1)
			case status == http.StatusBadRequest:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	log.Printf("done in %s: %d succeeded, %d rejected, %d failed",
		elapsed, succeeded.Load(), rejected.Load(), failed.Load())

	if got := succeeded.Load(); got != int32(*stock) {
		log.Printf("WARNING: expected %d successful orders, got %d", *stock, got)
	}
}

func seedProduct(client *http.Client, baseURL string, price int64, stock int) (int64, error) {
	body, _ := json.Marshal(map[string]any{
		"name":       fmt.Sprintf("loadgen-%d", time.Now().UnixNano()),
		"unit_price": price,
		"stock":      stock,
	})
	resp, err := client.Post(baseURL+"/api/v1/products", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func placeOrder(client *http.Client, baseURL string, productID int64, quantity int) (int, error) {
	body, _ := json.Marshal(map[string]any{
		"items": []map[string]any{
			{"product_id": productID, "quantity": quantity},
		},
	})
	resp, err := client.Post(baseURL+"/api/v1/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
