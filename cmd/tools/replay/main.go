//go:build pcap
// +build pcap

// Command replay extracts UDP payloads from a PCAP capture of a bench radar
// run and writes them to stdout as newline-delimited JSON, one line per
// packet, suitable as input to "radarfusion -input". Grounded on the
// teacher's internal/lidar/network.ReadPCAPFile: same pcap.OpenOffline +
// BPF port filter + gopacket.NewPacketSource + UDP-layer payload extraction,
// replayed instead of parsed into LiDAR frames.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

var (
	pcapFile = flag.String("pcap", "", "Path to the PCAP capture file (required)")
	udpPort  = flag.Int("udp-port", 5555, "UDP port the bench radar broadcast was captured on")
)

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("replay: -pcap is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	n, err := replay(ctx, *pcapFile, *udpPort, out)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
	log.Printf("replay: wrote %d packets", n)
}

func replay(ctx context.Context, path string, udpPort int, out *bufio.Writer) (int, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return 0, fmt.Errorf("open pcap %q: %w", path, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return 0, fmt.Errorf("set BPF filter %q: %w", filter, err)
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	count := 0

	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case packet, ok := <-packetSource.Packets():
			if !ok || packet == nil {
				return count, nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			if _, err := out.Write(udp.Payload); err != nil {
				return count, fmt.Errorf("write payload: %w", err)
			}
			if err := out.WriteByte('\n'); err != nil {
				return count, fmt.Errorf("write newline: %w", err)
			}
			count++
		}
	}
}
