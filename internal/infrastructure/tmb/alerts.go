package tmb

import (
	"context"
	"fmt"
)

type alertsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Alerts []Alert `json:"alerts"`
	} `json:"data"`
}

// Alert - инцидент из канала WEB. Даты в миллисекундах epoch.
type Alert struct {
	ID           FlexString    `json:"id"`
	BeginDate    int64         `json:"begin_date"`
	EndDate      *int64        `json:"end_date"`
	Status       string        `json:"status"`
	Cause        string        `json:"cause"`
	Publications []Publication `json:"publications"`
	Entities     []AlertEntity `json:"entities"`
}

// Publication содержит тексты на каталанском, испанском и английском.
type Publication struct {
	HeaderCa string `json:"headerCa"`
	HeaderEs string `json:"headerEs"`
	HeaderEn string `json:"headerEn"`
	TextCa   string `json:"textCa"`
	TextEs   string `json:"textEs"`
	TextEn   string `json:"textEn"`
}

type AlertEntity struct {
	LineCode      FlexString `json:"line_code"`
	LineName      string     `json:"line_name"`
	StationCode   FlexString `json:"station_code"`
	StationName   string     `json:"station_name"`
	DirectionName string     `json:"direction_name"`
	EntranceCode  FlexString `json:"entrance_code"`
	EntranceName  string     `json:"entrance_name"`
}

// Alerts - текущие инциденты сети.
func (c *Client) Alerts(ctx context.Context, network Network) ([]Alert, error) {
	endpoint := fmt.Sprintf("%s/alerts/%s/channels/WEB", c.baseURL, network)
	var resp alertsResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("tmb alerts %s: %w", network, err)
	}
	return resp.Data.Alerts, nil
}
