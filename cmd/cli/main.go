package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hive-corporation/trustscore/internal/adapter/handler"
)

func main() {
	domainName := flag.String("domain", "", "Domain to score")
	domainsFile := flag.String("file", "", "File with one domain per line")
	limit := flag.Int("limit", 0, "Number of recent reviews to consider (0 = server default)")
	serverAddr := flag.String("server", "localhost:50051", "Trust score gRPC API address")
	minScore := flag.Float64("min", 0, "Fail when a domain scores below this value")
	timeout := flag.Duration("timeout", 60*time.Second, "Timeout per domain")
	flag.Parse()

	domains, err := collectDomains(*domainName, *domainsFile)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if len(domains) == 0 {
		log.Fatalf("❌ no domain given (use -domain or -file)")
	}

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("❌ error connecting to trust score API: %v", err)
	}
	defer conn.Close()

	client := handler.NewTrustScoreClient(conn)

	fmt.Printf("🔍 scoring %d domain(s) against %s...\n\n", len(domains), *serverAddr)

	failed := 0
	for _, d := range domains {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		reply, err := client.GetTrustScore(ctx, d, *limit)
		cancel()

		if err != nil {
			fmt.Printf("⚠️  [ERROR] %s -> %v\n", d, err)
			failed++
			continue
		}

		if reply.TrustScore < *minScore {
			fmt.Printf("🚨 [LOW] %s -> %.1f (%d reviews)\n", reply.Domain, reply.TrustScore, reply.ReviewCount)
			failed++
		} else {
			fmt.Printf("✅ [OK] %s -> %.1f (%d reviews)\n", reply.Domain, reply.TrustScore, reply.ReviewCount)
		}
	}

	fmt.Println("------------------------------------------------")
	if failed > 0 {
		fmt.Printf("❌ FAIL: %d of %d domains failed or scored below %.1f.\n", failed, len(domains), *minScore)
		os.Exit(1)
	}

	fmt.Printf("✅ SUCCESS: %d domains scored.\n", len(domains))
}

// collectDomains merges the -domain flag with the lines of the -file flag,
// skipping blank lines and # comments.
func collectDomains(single, path string) ([]string, error) {
	var domains []string
	if single != "" {
		domains = append(domains, single)
	}
	if path == "" {
		return domains, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return domains, nil
}
