package main

import (
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/robotalks/coproc.go/pkg/bridge/mqtt"
)

var (
	topic = "#"
)

func init() {
	mqtt.SetupFlags()
	flag.StringVar(&topic, "topic", topic, "Topic pattern to watch, relative to the prefix.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewConfig().NewQueue("")
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(topic, mqtt.Handler(func(topic string, payload []byte) {
		msg, err := mqtt.Decode(payload)
		if err != nil {
			log.Printf("%s: bad message: %v (%q)", topic, err, payload)
			return
		}
		log.Printf("%s: %s", topic, mqtt.FormatJSON(msg))
	}))
	token := q.Client.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}
