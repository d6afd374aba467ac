package client

// WanStatus is the cellwan_status object reported by the router.
// Every declared field must be present in the payload; fields the router
// sends beyond these (bandwidth arrays, SCC info) are ignored.
type WanStatus struct {
	CellRoamingEnable           bool   `json:"CELL_Roaming_Enable"`
	IntfStatus                  string `json:"INTF_Status"`
	IntfIMEI                    string `json:"INTF_IMEI"`
	IntfCurrentAccessTechnology string `json:"INTF_Current_Access_Technology"`
	IntfNetworkInUse            string `json:"INTF_Network_In_Use"`
	IntfRSSI                    int32  `json:"INTF_RSSI"`
	IntfSupportedBands          string `json:"INTF_Supported_Bands"`
	IntfCurrentBand             string `json:"INTF_Current_Band"`
	IntfCellID                  int32  `json:"INTF_Cell_ID"`
	IntfPhyCellID               int32  `json:"INTF_PhyCell_ID"`
	IntfUplinkBandwidth         string `json:"INTF_Uplink_Bandwidth"`
	IntfDownlinkBandwidth       string `json:"INTF_Downlink_Bandwidth"`
	IntfRFCN                    string `json:"INTF_RFCN"`
	IntfRSRP                    int32  `json:"INTF_RSRP"`
	IntfRSRQ                    int32  `json:"INTF_RSRQ"`
	IntfRSCP                    int32  `json:"INTF_RSCP"`
	IntfEcNo                    int32  `json:"INTF_EcNo"`
	IntfTAC                     int32  `json:"INTF_TAC"`
	IntfLAC                     int32  `json:"INTF_LAC"`
	IntfRAC                     int32  `json:"INTF_RAC"`
	IntfBSIC                    int32  `json:"INTF_BSIC"`
	IntfSINR                    int32  `json:"INTF_SINR"`
	IntfCQI                     int32  `json:"INTF_CQI"`
	IntfMCS                     int32  `json:"INTF_MCS"`
	IntfRI                      int32  `json:"INTF_RI"`
	IntfPMI                     int32  `json:"INTF_PMI"`
	IntfModuleSoftwareVersion   string `json:"INTF_Module_Software_Version"`
	USIMStatus                  string `json:"USIM_Status"`
	USIMIMSI                    string `json:"USIM_IMSI"`
	USIMICCID                   string `json:"USIM_ICCID"`
	USIMPINProtection           bool   `json:"USIM_PIN_Protection"`
	USIMPINRemainingAttempts    int32  `json:"USIM_PIN_Remaining_Attempts"`
	PassthruEnable              bool   `json:"Passthru_Enable"`
	PassthruMode                string `json:"Passthru_Mode"`
	PassthruMacAddr             string `json:"Passthru_MacAddr"`
	NSAEnable                   bool   `json:"NSA_Enable"`
	NSAMCC                      string `json:"NSA_MCC"`
	NSAMNC                      string `json:"NSA_MNC"`
	NSAPhyCellID                int32  `json:"NSA_PhyCellID"`
	NSARFCN                     int32  `json:"NSA_RFCN"`
	NSABand                     string `json:"NSA_Band"`
	NSARSSI                     int32  `json:"NSA_RSSI"`
	NSARSRP                     int32  `json:"NSA_RSRP"`
	NSARSRQ                     int32  `json:"NSA_RSRQ"`
	NSASINR                     int32  `json:"NSA_SINR"`
}

// SpeedtestResult is the "result" record printed by `speedtest -f json`
type SpeedtestResult struct {
	Download   TransferResult `json:"download"`
	Upload     TransferResult `json:"upload"`
	Ping       PingResult     `json:"ping"`
	PacketLoss float64        `json:"packetLoss,omitempty"` // absent when the server does not report loss
}

// TransferResult contains download or upload results
type TransferResult struct {
	Bandwidth uint64        `json:"bandwidth"`
	Bytes     uint64        `json:"bytes"`
	Elapsed   uint64        `json:"elapsed"`
	Latency   LoadedLatency `json:"latency"`
}

// LoadedLatency contains latency measured while the link was loaded
type LoadedLatency struct {
	High   float64 `json:"high"`
	IQM    float64 `json:"iqm"`
	Jitter float64 `json:"jitter"`
	Low    float64 `json:"low"`
}

// PingResult contains idle latency statistics
type PingResult struct {
	High    float64 `json:"high"`
	Jitter  float64 `json:"jitter"`
	Latency float64 `json:"latency"`
	Low     float64 `json:"low"`
}
