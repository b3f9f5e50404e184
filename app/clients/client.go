package clients

import (
	"WordLeap/app/sentence"
)

type Interface interface {
	Subscribe(*sentence.Controller)
}

type Client struct {
	controller *sentence.Controller
}
