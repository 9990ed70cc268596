package actions

var jsonLoadStage = `{
  "schemaVersion": 1,
  "description": "load stage from the IMF DataMapper API to Snowflake via gzip CSV files in S3",
  "connections": {
    "target": {
      "type": "snowflake",
      "logicalName": "${targetEnv}",
      "data": {
        "dsn": "${tgtDsn}"
      }
    }
  },
  "type": "${repeatTransform}",
  "repeatMetadata": {
    "sleepSeconds": ${sleepSeconds}
  },
  "transformGroups": {
    "loadIndicators": {
      "type": "sequential",
      "steps": {
        "readApi": {
          "type": "IndicatorInput",
          "data": {
            "apiBaseUrl": "${apiBaseUrl}",
            "dataset": "${dataset}",
            "indicatorCodesCSV": "${indicatorCodes}",
            "apiTimeoutSeconds": "${apiTimeoutSeconds}"
          }
        },
        "filterYears": {
          "type": "FilterRows",
          "data": {
            "readDataFromStep": "readApi",
            "filterType": "JsonLogic",
            "filterMetadata": "${yearFilterRule}"
          }
        },
        "csvWriter": {
          "type": "CSVFileWriter",
          "data": {
            "readDataFromStep": "filterYears",
            "outputDir": "",
            "fileNamePrefix": "${fileNamePrefix}",
            "fileNameSuffixAppendCreationStamp": "true",
            "fileNameSuffixDateTimeFormat": "20060102T150405",
            "fileNameExtension": "csv",
            "useGzip": "true",
            "headerFieldsCSV": "INDICATOR,COUNTRY_CODE,YEAR,VALUE,INGESTION_TIMESTAMP",
            "maxFileRows": "${csvMaxFileRows}",
            "maxFileBytes": "${csvMaxFileBytes}",
            "outputFieldName4FilePath": "#internalFilePath"
          }
        },
        "copyFilesToS3": {
          "type": "CopyFilesToS3",
          "data": {
            "readDataFromStep": "csvWriter",
            "inputFieldName4FilePath": "#internalFilePath",
            "outputFieldName4ObjectName": "#dataFile",
            "bucketName": "${tgtS3BucketName}",
            "bucketPrefix": "${tgtS3BucketPrefix}",
            "bucketRegion": "${tgtS3Region}",
            "removeInputFiles": "true"
          }
        },
        "copyIntoSnowflake": {
          "type": "SnowflakeLoader",
          "data": {
            "readDataFromStep": "copyFilesToS3",
            "logicalConnectionName": "target",
            "fieldName4FileName": "#dataFile",
            "deleteAllRows": "${deleteTarget}",
            "stageName": "${snowflakeStage}",
            "schemaTableName": "${snowflakeTable}"
          }
        }
      },
      "sequence": [
        "readApi",
        "filterYears",
        "csvWriter",
        "copyFilesToS3",
        "copyIntoSnowflake"
      ]
    }
  },
  "sequence": [
    "loadIndicators"
  ]
}`
