// Package alarmcat maps raw device alarm type codes to human descriptions and
// to the category/subtype pairs the Gauss Control API expects. Pure data.
package alarmcat

var descriptions = map[int]string{
	0:      "Video Loss Alarm",
	1:      "Video Block Alarm",
	3:      "Memory Abnormality Alarm",
	7:      "Emergency Alarm",
	8:      "Speeding Alarm",
	9:      "Low Voltage Alarm",
	38:     "Illegal Shutdown Alarm",
	105:    "GPS Loss Alarm",
	6005:   "Front Close Blind Spot Alarm",
	17000:  "Fence Alarm",
	17001:  "Entering-Area Alarm",
	17002:  "Out-Of-Area Alarm",
	17003:  "Entering-Line Alarm",
	17004:  "Out-Of-Line Alarm",
	17005:  "Line Deviation Alarm",
	17006:  "Excessive Road Section Driving Time Alarm",
	17007:  "Fence Speeding Alarm",
	17008:  "Insufficient Road Section Driving Time Alarm",
	17009:  "Enter&Leave Fence Alarm",
	170010: "Limit-Time Alarm",
	18000:  "X-direction",
	18001:  "Y-direction",
	18002:  "Z-direction",
	18006:  "Rapid Acceleration",
	18007:  "Rapid Deceleration",
	18010:  "Sharp Left Turn",
	18011:  "Sharp Right Turn",
	18015:  "Shock",
	40001:  "IO1 Alarm",
	40002:  "IO2 Alarm",
	40003:  "IO3 Alarm",
	40004:  "IO4 Alarm",
	40005:  "IO5 Alarm",
	40006:  "IO6 Alarm",
	40007:  "IO7 Alarm",
	40008:  "IO8 Alarm",
	56000:  "Driver Fatigue",
	56001:  "No Driver",
	56002:  "Driver Making Phone Calls",
	56003:  "Driver Smoking",
	56004:  "Driver Distraction",
	56005:  "Lane Departure",
	56006:  "Front Collision",
	56007:  "Speed Limit Sign Alarm",
	56009:  "Tailgating",
	56010:  "Yawning",
	56011:  "Pedestrian Collision",
	56016:  "Unfastened Seat Belt",
	56018:  "Blind Spot Detection (right)",
	56023:  "Blind Spot Detection (left)",
	56025:  "Intersection Speed Limit Alarm",
	56031:  "STOP Sign Alarm",
	56046:  "Blind Spot Detection (rear)",
	210000: "Abnormal Driving Alarm",
	210001: "Unknown Driver Alarm",
}

// Classification is the Gauss Control category/subtype for a raw alarm code.
type Classification struct {
	Category string
	Subtype  string
}

var gaussMapping = map[int]Classification{
	// Distractions
	56002: {"Distraction", "PhoneUse"},
	56004: {"Distraction", "DistractedDriving"},
	56003: {"Distraction", "Smoking"},
	0:     {"Distraction", "VideoLossAlarm"},
	1:     {"Distraction", "VideoBlockAlarm"},

	// Drowsiness
	56000: {"Drowsiness", "Microsleep"},
	56010: {"Drowsiness", "LightDrowsiness"},
	6005:  {"SensorFieldOfViewObstruction", "CoveredSensors"},

	// Sensor faults
	105: {"SensorFieldOfViewObstruction", "DeviceDeviation"},

	// Equipment state
	9: {"VehicleStatus", "LowVoltage"},
	7: {"Driving", "EmergencyAlarm"},

	// Driving behavior
	8:     {"MaxSpeed", "Speeding"},
	17005: {"Driving", "OutOfLane"},
	18006: {"Driving", "AbruptAcceleration"},
	18007: {"Driving", "HardBraking"},
	18010: {"Driving", "SharpLeftTurn"},
	18011: {"Driving", "SharpRightTurn"},
	56016: {"Driving", "UnfastenedSeatBelt"},

	// Geozone speeding
	17007:  {"MaxGeoSpeed", "MoreSevereGeoSpeeding"},
	17008:  {"MaxGeoSpeed", "SevereGeoSpeeding"},
	17009:  {"MaxGeoSpeed", "NightGeoSpeeding"},
	170010: {"MaxGeoSpeed", "MorningGeoSpeeding"},

	// Protocol breaches
	210000: {"UnfulfilledProtocol", "FormNotEntered"},
	210001: {"UnfulfilledProtocol", "FormWithWrongData"},

	// General
	56006: {"Driving", "FrontCollision"},
	56009: {"Driving", "Tailgating"},
	56018: {"Driving", "BlindSpotDetectionRight"},
	56023: {"Driving", "BlindSpotDetectionLeft"},
	56046: {"Driving", "BlindSpotDetectionRear"},
	17000: {"MaxSpeed", "FenceAlarm"},
	17003: {"MaxSpeed", "EnteringLineAlarm"},
	17004: {"MaxSpeed", "OutOfLineAlarm"},
}

// Describe returns the human-readable description for a raw alarm code,
// or "Unknown Alarm" when the code is not in the table.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "Unknown Alarm"
}

// Classify returns the Gauss category/subtype for a raw alarm code. The
// second return is false for codes Gauss has no mapping for; those alarms are
// still correlated but forwarded unclassified.
func Classify(code int) (Classification, bool) {
	c, ok := gaussMapping[code]
	return c, ok
}
