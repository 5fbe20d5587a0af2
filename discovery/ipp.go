package discovery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OpenPrinting/goipp"
)

const (
	// ippBasePath is the conventional endpoint for IPP Everywhere devices.
	ippBasePath = "/ipp/print"
	// ippModelAttr is the printer attribute carrying the human-readable
	// name, make and model.
	ippModelAttr = "printer-make-and-model"
	// ippMaxBody bounds how much of the response we decode.
	ippMaxBody = 64 << 10
)

// queryIPPModel issues a Get-Printer-Attributes request to host:631 and
// reads the make-and-model attribute. Any transport error, IPP error
// status, or malformed response is a soft failure returning "".
func queryIPPModel(ctx context.Context, ip string, timeout time.Duration) string {
	printerURI := fmt.Sprintf("ipp://%s:631%s", ip, ippBasePath)
	endpoint := fmt.Sprintf("http://%s:631%s", ip, ippBasePath)
	return fetchIPPModel(ctx, endpoint, printerURI, timeout)
}

// fetchIPPModel performs the attribute exchange against an explicit HTTP
// endpoint; split out so tests can point it at a local server.
func fetchIPPModel(ctx context.Context, endpoint, printerURI string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetPrinterAttributes, 1)
	req.Operation.Add(goipp.MakeAttribute("attributes-charset",
		goipp.TagCharset, goipp.String("utf-8")))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language",
		goipp.TagLanguage, goipp.String("en-US")))
	req.Operation.Add(goipp.MakeAttribute("printer-uri",
		goipp.TagURI, goipp.String(printerURI)))
	req.Operation.Add(goipp.MakeAttribute("requested-attributes",
		goipp.TagKeyword, goipp.String(ippModelAttr)))

	payload, err := req.EncodeBytes()
	if err != nil {
		Debug("ipp: encode failed: " + err.Error())
		return ""
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	httpReq.Header.Set("Content-Type", goipp.ContentType)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		Debug("ipp: request to " + endpoint + " failed: " + err.Error())
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, ippMaxBody))
	if err != nil {
		Debug("ipp: read failed for " + endpoint + ": " + err.Error())
		return ""
	}

	var msg goipp.Message
	if err := msg.DecodeBytes(body); err != nil {
		Debug("ipp: decode failed for " + endpoint + ": " + err.Error())
		return ""
	}
	if goipp.Status(msg.Code) != goipp.StatusOk {
		Debug(fmt.Sprintf("ipp: %s answered with status %s", endpoint, goipp.Status(msg.Code)))
		return ""
	}
	for _, attr := range msg.Printer {
		if attr.Name != ippModelAttr || len(attr.Values) == 0 {
			continue
		}
		if model := strings.TrimSpace(attr.Values[0].V.String()); model != "" {
			return model
		}
	}
	Debug("ipp: " + endpoint + " answered without a model attribute")
	return ""
}
